package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/fruitsalade/fruitshell/pkg/models"
	"github.com/fruitsalade/fruitshell/pkg/protocol"
)

func TestSearchPlugins(t *testing.T) {
	var gotQuery string
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(protocol.PluginSearchResponse{
			Results: []models.Plugin{{ID: 7, Name: "pl-simpledsapp", Version: "2.1.3"}},
		})
	}))
	defer ts.Close()

	plugins, err := c.SearchPlugins(context.Background(), "pl-simpledsapp", "2.1.3")
	if err != nil {
		t.Fatalf("SearchPlugins: %v", err)
	}
	if len(plugins) != 1 || plugins[0].ID != 7 {
		t.Fatalf("unexpected result: %+v", plugins)
	}
	if gotQuery != "name=pl-simpledsapp&version=2.1.3" {
		t.Errorf("unexpected query: %s", gotQuery)
	}
}

func TestPluginReadme_MissingIsNotAnError(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	text, err := c.PluginReadme(context.Background(), 99)
	if err != nil {
		t.Fatalf("PluginReadme: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty readme, got %q", text)
	}
}

func TestPluginParameters(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/plugins/7/parameters" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(protocol.PluginParametersResponse{
			Parameters: []models.PluginParameter{
				{Name: "prefix", Flag: "--prefix", Type: "string", Optional: true},
			},
		})
	}))
	defer ts.Close()

	params, err := c.PluginParameters(context.Background(), 7)
	if err != nil {
		t.Fatalf("PluginParameters: %v", err)
	}
	if len(params) != 1 || params[0].Flag != "--prefix" {
		t.Fatalf("unexpected parameters: %+v", params)
	}
}

func TestFeedAndInstanceLookup(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/feeds/12":
			json.NewEncoder(w).Encode(models.Feed{ID: 12, Name: "brain-study"})
		case "/api/v1/plugins/instances/45":
			json.NewEncoder(w).Encode(models.PluginInstance{ID: 45, PluginName: "pl-dircopy", PluginVersion: "1.0.2"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	feed, err := c.Feed(context.Background(), 12)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if feed.Name != "brain-study" {
		t.Errorf("unexpected feed name: %s", feed.Name)
	}

	inst, err := c.PluginInstance(context.Background(), 45)
	if err != nil {
		t.Fatalf("PluginInstance: %v", err)
	}
	if inst.PluginName != "pl-dircopy" || inst.PluginVersion != "1.0.2" {
		t.Errorf("unexpected instance: %+v", inst)
	}
}
