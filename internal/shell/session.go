package shell

import (
	gopath "path"
	"strings"
)

// Session holds the shell's process-wide state: working directory,
// server connection, and the path addressing mode. There is exactly one
// Session per process; it is constructed once and passed to the
// components that need it.
type Session struct {
	cwd      string
	conn     Remote
	physical bool
	cache    *ListingCache
}

// NewSession creates a session rooted at "/" with no connection.
func NewSession(cache *ListingCache) *Session {
	return &Session{cwd: "/", cache: cache}
}

// CWD returns the current working directory. Always non-empty and
// absolute.
func (s *Session) CWD() string {
	return s.cwd
}

// SetCWD changes the working directory and notifies the listing cache.
// Input is normalized so the cwd invariant (non-empty, leading slash)
// holds for any string.
func (s *Session) SetCWD(path string) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	s.cwd = gopath.Clean(path)
	s.cache.CWDUpdate(s.cwd)
}

// Remote returns the current connection, or nil when disconnected.
func (s *Session) Remote() Remote {
	return s.conn
}

// Connected reports whether a server connection is established.
func (s *Session) Connected() bool {
	return s.conn != nil
}

// Connect swaps the server connection. Everything cached under the old
// connection is stale, so the cache is cleared.
func (s *Session) Connect(r Remote) {
	s.conn = r
	s.cache.Clear()
}

// PhysicalMode reports whether paths are used verbatim (true) or passed
// through logical-to-physical mapping (false, the default).
func (s *Session) PhysicalMode() bool {
	return s.physical
}

// SetPhysicalMode toggles the addressing mode. Cached listings were
// fetched under the old mode, so a change clears the cache.
func (s *Session) SetPhysicalMode(on bool) {
	if s.physical != on {
		s.physical = on
		s.cache.Clear()
	}
}
