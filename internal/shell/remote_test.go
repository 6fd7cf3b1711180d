package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fruitsalade/fruitshell/pkg/models"
	"github.com/fruitsalade/fruitshell/pkg/protocol"
)

// fakeRemote is an in-memory Remote for tests. Listings are keyed by
// absolute path; listCalls counts fetches per path so tests can assert
// cache behavior.
type fakeRemote struct {
	listings  map[string][]models.ListEntry
	contents  map[string]string
	listCalls map[string]int

	uploadErr error

	searchResults  []models.Plugin
	searchErr      error
	catalogResults []models.Plugin
	catalogErr     error
	readmes        map[int]string
	parameters     map[int][]models.PluginParameter

	feeds     map[int]*models.Feed
	instances map[int]*models.PluginInstance

	pingErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		listings:  make(map[string][]models.ListEntry),
		contents:  make(map[string]string),
		listCalls: make(map[string]int),
		readmes:   make(map[int]string),
		feeds:     make(map[int]*models.Feed),
		instances: make(map[int]*models.PluginInstance),
	}
}

func (f *fakeRemote) addDir(path string, names ...string) {
	entries := make([]models.ListEntry, 0, len(names))
	for _, n := range names {
		typ := models.EntryFile
		if strings.HasSuffix(n, "/") {
			typ = models.EntryDir
			n = strings.TrimSuffix(n, "/")
		}
		entries = append(entries, models.ListEntry{Name: n, Type: typ})
	}
	f.listings[path] = entries
}

func (f *fakeRemote) List(ctx context.Context, path string, opts protocol.ListOptions) ([]models.ListEntry, error) {
	f.listCalls[path]++
	entries, ok := f.listings[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, errNotFound)
	}
	return entries, nil
}

func (f *fakeRemote) totalListCalls() int {
	total := 0
	for _, n := range f.listCalls {
		total += n
	}
	return total
}

func (f *fakeRemote) MapPhysical(ctx context.Context, path string) (string, error) {
	return "/physical" + path, nil
}

func (f *fakeRemote) FetchContent(ctx context.Context, path string, offset, length int64) (io.ReadCloser, int64, error) {
	content, ok := f.contents[path]
	if !ok {
		return nil, 0, fmt.Errorf("%s: %w", path, errNotFound)
	}
	return io.NopCloser(bytes.NewReader([]byte(content))), int64(len(content)), nil
}

func (f *fakeRemote) Upload(ctx context.Context, path string, content io.Reader, size int64, expectedVersion int) (*protocol.UploadResponse, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	f.contents[path] = string(data)
	return &protocol.UploadResponse{Path: path, Size: int64(len(data)), Version: 1}, nil
}

func (f *fakeRemote) Mkdir(ctx context.Context, path string) error {
	f.listings[path] = nil
	return nil
}

func (f *fakeRemote) Touch(ctx context.Context, path string) error {
	f.contents[path] = ""
	return nil
}

func (f *fakeRemote) Move(ctx context.Context, src, dst string) error {
	content, ok := f.contents[src]
	if !ok {
		return fmt.Errorf("%s: %w", src, errNotFound)
	}
	delete(f.contents, src)
	f.contents[dst] = content
	return nil
}

func (f *fakeRemote) Delete(ctx context.Context, path string) error {
	delete(f.contents, path)
	delete(f.listings, path)
	return nil
}

func (f *fakeRemote) SearchPlugins(ctx context.Context, name, version string) ([]models.Plugin, error) {
	return f.searchResults, f.searchErr
}

func (f *fakeRemote) ListPluginVersions(ctx context.Context, name string) ([]models.Plugin, error) {
	return f.catalogResults, f.catalogErr
}

func (f *fakeRemote) PluginReadme(ctx context.Context, id int) (string, error) {
	return f.readmes[id], nil
}

func (f *fakeRemote) PluginParameters(ctx context.Context, id int) ([]models.PluginParameter, error) {
	return f.parameters[id], nil
}

func (f *fakeRemote) Feed(ctx context.Context, id int) (*models.Feed, error) {
	feed, ok := f.feeds[id]
	if !ok {
		return nil, errNotFound
	}
	return feed, nil
}

func (f *fakeRemote) PluginInstance(ctx context.Context, id int) (*models.PluginInstance, error) {
	inst, ok := f.instances[id]
	if !ok {
		return nil, errNotFound
	}
	return inst, nil
}

func (f *fakeRemote) Ping(ctx context.Context) error {
	return f.pingErr
}

// newTestShell wires a session, cache and resolver over a fake remote.
func newTestShell(remote Remote) (*Session, *ListingCache, *Resolver) {
	cache := NewListingCache()
	session := NewSession(cache)
	session.Connect(remote)
	return session, cache, NewResolver(session, cache)
}
