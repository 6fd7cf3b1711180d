package client

import (
	"context"
	"errors"
	"net/url"

	"github.com/fruitsalade/fruitshell/pkg/models"
	"github.com/fruitsalade/fruitshell/pkg/protocol"
)

// SearchPlugins queries the plugin catalog for a name/version pair.
// The server's search may substring-match, so callers must verify the
// returned candidates against the requested name and version.
func (c *Client) SearchPlugins(ctx context.Context, name, version string) ([]models.Plugin, error) {
	v := url.Values{}
	v.Set("name", name)
	v.Set("version", version)

	var sr protocol.PluginSearchResponse
	u := c.baseURL + "/api/v1/plugins/search?" + v.Encode()
	if err := c.getJSON(ctx, "plugin-search", u, &sr); err != nil {
		return nil, err
	}
	return sr.Results, nil
}

// ListPluginVersions fetches every catalog entry for the given plugin name.
func (c *Client) ListPluginVersions(ctx context.Context, name string) ([]models.Plugin, error) {
	var sr protocol.PluginSearchResponse
	u := c.baseURL + "/api/v1/plugins?name=" + url.QueryEscape(name)
	if err := c.getJSON(ctx, "plugin-list", u, &sr); err != nil {
		return nil, err
	}
	return sr.Results, nil
}

// PluginReadme fetches the README text for a plugin. A plugin without a
// README yields an empty string, not an error.
func (c *Client) PluginReadme(ctx context.Context, id int) (string, error) {
	var rr protocol.PluginReadmeResponse
	u := c.baseURL + "/api/v1/plugins/" + protocol.PluginID(id) + "/readme"
	if err := c.getJSON(ctx, "plugin-readme", u, &rr); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return rr.Readme, nil
}

// PluginParameters fetches the invocation parameters of a plugin.
func (c *Client) PluginParameters(ctx context.Context, id int) ([]models.PluginParameter, error) {
	var pr protocol.PluginParametersResponse
	u := c.baseURL + "/api/v1/plugins/" + protocol.PluginID(id) + "/parameters"
	if err := c.getJSON(ctx, "plugin-parameters", u, &pr); err != nil {
		return nil, err
	}
	return pr.Parameters, nil
}

// Feed looks up a feed by ID. Used for path-title substitution only.
func (c *Client) Feed(ctx context.Context, id int) (*models.Feed, error) {
	var f models.Feed
	u := c.baseURL + "/api/v1/feeds/" + protocol.PluginID(id)
	if err := c.getJSON(ctx, "feed", u, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// PluginInstance looks up a plugin instance by ID. Used for path-title
// substitution only.
func (c *Client) PluginInstance(ctx context.Context, id int) (*models.PluginInstance, error) {
	var pi models.PluginInstance
	u := c.baseURL + "/api/v1/plugins/instances/" + protocol.PluginID(id)
	if err := c.getJSON(ctx, "plugin-instance", u, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}
