// Package protocol defines the API request/response types.
package protocol

import (
	"net/url"
	"strconv"

	"github.com/fruitsalade/fruitshell/pkg/models"
)

// SortKey selects the ordering of a directory listing.
type SortKey string

const (
	SortName  SortKey = "name"
	SortSize  SortKey = "size"
	SortDate  SortKey = "date"
	SortOwner SortKey = "owner"
)

// ListOptions are the query parameters for GET /api/v1/list.
type ListOptions struct {
	Sort     SortKey
	Reverse  bool
	DirsOnly bool
}

// Query encodes the options as URL query values.
func (o ListOptions) Query(path string) url.Values {
	v := url.Values{}
	v.Set("path", path)
	if o.Sort != "" {
		v.Set("sort", string(o.Sort))
	}
	if o.Reverse {
		v.Set("reverse", "true")
	}
	if o.DirsOnly {
		v.Set("dirs", "true")
	}
	return v
}

// ListResponse is returned by GET /api/v1/list.
type ListResponse struct {
	Path    string             `json:"path"`
	Entries []models.ListEntry `json:"entries"`
}

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// UploadResponse holds the response from a content upload.
type UploadResponse struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	Hash    string `json:"hash"`
	Version int    `json:"version"`
}

// ConflictResponse is returned when an upload conflicts with the current
// server version.
type ConflictResponse struct {
	Error           string `json:"error"`
	Path            string `json:"path"`
	ExpectedVersion int    `json:"expected_version"`
	CurrentVersion  int    `json:"current_version"`
	CurrentHash     string `json:"current_hash"`
}

// MoveRequest is the body for POST /api/v1/tree/{path}?action=move.
type MoveRequest struct {
	Destination string `json:"destination"`
}

// PluginSearchResponse is returned by the plugin catalog search endpoints.
type PluginSearchResponse struct {
	Results []models.Plugin `json:"results"`
}

// PluginReadmeResponse is returned by GET /api/v1/plugins/{id}/readme.
type PluginReadmeResponse struct {
	Readme string `json:"readme"`
}

// PluginParametersResponse is returned by GET /api/v1/plugins/{id}/parameters.
type PluginParametersResponse struct {
	Parameters []models.PluginParameter `json:"parameters"`
}

// ResolveResponse is returned by GET /api/v1/resolve, mapping a logical
// path to its physical storage address.
type ResolveResponse struct {
	Path     string `json:"path"`
	Physical string `json:"physical"`
}

// SSEEvent represents a server-sent change event.
type SSEEvent struct {
	Type      string `json:"type"`
	Path      string `json:"path"`
	Timestamp int64  `json:"timestamp"`
}

// PluginID formats a plugin ID as used in catalog URLs.
func PluginID(id int) string {
	return strconv.Itoa(id)
}
