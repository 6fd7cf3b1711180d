package shell

import (
	"context"
	"fmt"
	gopath "path"
	"strings"

	"github.com/fruitsalade/fruitshell/internal/logging"
	"github.com/fruitsalade/fruitshell/pkg/models"
	"github.com/fruitsalade/fruitshell/pkg/protocol"
)

// Resolver turns raw user path tokens into canonical absolute paths and
// provides read-through cached listings.
type Resolver struct {
	session *Session
	cache   *ListingCache
}

// NewResolver creates a resolver over the given session and cache.
func NewResolver(session *Session, cache *ListingCache) *Resolver {
	return &Resolver{session: session, cache: cache}
}

// Abs canonicalizes a raw path against the current working directory.
func (r *Resolver) Abs(raw string) string {
	if raw == "" {
		return r.session.CWD()
	}
	if !strings.HasPrefix(raw, "/") {
		raw = joinChild(r.session.CWD(), raw)
	}
	return gopath.Clean(raw)
}

// Physical returns the address to send to the server for abs: the path
// itself in physical mode, or the mapped physical path in logical mode.
func (r *Resolver) Physical(ctx context.Context, abs string) (string, error) {
	if r.session.PhysicalMode() {
		return abs, nil
	}
	remote := r.session.Remote()
	if remote == nil {
		return "", ErrNotConnected
	}
	return remote.MapPhysical(ctx, abs)
}

// Listing returns the listing for abs through the cache: cache hit is
// returned as-is, a miss fetches remotely and stores the result.
func (r *Resolver) Listing(ctx context.Context, abs string) ([]models.ListEntry, error) {
	if entries, ok := r.cache.Get(abs); ok {
		return entries, nil
	}

	remote := r.session.Remote()
	if remote == nil {
		return nil, ErrNotConnected
	}
	entries, err := remote.List(ctx, abs, protocol.ListOptions{})
	if err != nil {
		return nil, err
	}
	r.cache.Set(abs, entries)
	return entries, nil
}

// ResolveArgs resolves the positional tokens of a command into absolute
// paths.
//
// Remote resource names may contain spaces, so multiple tokens without
// flags or wildcards are first probed as one space-joined path: a trial
// listing fetch decides. A failed probe is discarded without reaching
// the user, and each token is then resolved independently. Wildcard
// tokens arrive pre-expanded from the user's shell and are always
// resolved independently, as is anything accompanied by flags.
func (r *Resolver) ResolveArgs(ctx context.Context, tokens []string, flagged bool) []string {
	switch {
	case len(tokens) == 0:
		return []string{r.session.CWD()}
	case len(tokens) == 1:
		return []string{r.Abs(tokens[0])}
	}

	if !flagged && !hasWildcard(tokens) {
		joined := r.Abs(strings.Join(tokens, " "))
		_, err := r.Listing(ctx, joined)
		if err == nil {
			return []string{joined}
		}
		logging.Debug("joined-path probe missed",
			logging.String("path", joined), logging.Err(err))
	}

	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, r.Abs(tok))
	}
	return out
}

// Entry returns the listing entry describing abs itself, found by
// listing its parent directory through the cache.
func (r *Resolver) Entry(ctx context.Context, abs string) (models.ListEntry, error) {
	if abs == "/" {
		return models.ListEntry{Name: "/", Type: models.EntryDir}, nil
	}

	parent, name := gopath.Split(abs)
	entries, err := r.Listing(ctx, gopath.Clean(parent))
	if err != nil {
		return models.ListEntry{}, fmt.Errorf("%s: %w", abs, err)
	}
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	return models.ListEntry{}, fmt.Errorf("%s: %w", abs, errNotFound)
}

func hasWildcard(tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(t, "*") {
			return true
		}
	}
	return false
}

// joinChild constructs a child path from parent + name.
func joinChild(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}
