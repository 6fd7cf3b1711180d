// Package shell implements the interactive front-end for the remote
// filesystem: session state, listing cache, path resolution, completion,
// the plugin-executable interceptor and the command dispatcher.
package shell

import (
	"context"
	"errors"
	"io"

	"github.com/fruitsalade/fruitshell/pkg/models"
	"github.com/fruitsalade/fruitshell/pkg/protocol"
)

// ErrNotConnected is returned when a command needs a server connection
// and the session has none.
var ErrNotConnected = errors.New("not connected (use connect <server-url>)")

// errNotFound marks a path that the server has no entry for.
var errNotFound = errors.New("no such file or directory")

// RemoteListing fetches directory listings.
type RemoteListing interface {
	List(ctx context.Context, path string, opts protocol.ListOptions) ([]models.ListEntry, error)
}

// RemoteFileOps covers the mutating and content operations.
type RemoteFileOps interface {
	FetchContent(ctx context.Context, path string, offset, length int64) (io.ReadCloser, int64, error)
	Upload(ctx context.Context, path string, content io.Reader, size int64, expectedVersion int) (*protocol.UploadResponse, error)
	Mkdir(ctx context.Context, path string) error
	Touch(ctx context.Context, path string) error
	Move(ctx context.Context, src, dst string) error
	Delete(ctx context.Context, path string) error
}

// RemotePluginCatalog is the compute-plugin catalog.
type RemotePluginCatalog interface {
	SearchPlugins(ctx context.Context, name, version string) ([]models.Plugin, error)
	ListPluginVersions(ctx context.Context, name string) ([]models.Plugin, error)
	PluginReadme(ctx context.Context, id int) (string, error)
	PluginParameters(ctx context.Context, id int) ([]models.PluginParameter, error)
}

// RemoteTitleCatalog resolves display names for feed and plugin-instance
// path segments. Cosmetic only, never on the resolution hot path.
type RemoteTitleCatalog interface {
	Feed(ctx context.Context, id int) (*models.Feed, error)
	PluginInstance(ctx context.Context, id int) (*models.PluginInstance, error)
}

// PathMapper maps logical paths to physical storage addresses.
type PathMapper interface {
	MapPhysical(ctx context.Context, path string) (string, error)
}

// Remote is the full collaborator surface the shell needs from a server
// connection. *client.Client satisfies it.
type Remote interface {
	RemoteListing
	RemoteFileOps
	RemotePluginCatalog
	RemoteTitleCatalog
	PathMapper
	Ping(ctx context.Context) error
}
