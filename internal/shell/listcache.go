package shell

import (
	"github.com/fruitsalade/fruitshell/internal/metrics"
	"github.com/fruitsalade/fruitshell/pkg/models"
)

// ListingCache caches directory listings keyed by absolute path.
//
// An entry is trusted until explicitly invalidated; there is no TTL.
// A working-directory change clears the whole cache, not just the old
// directory's entry: navigation can happen across logical/physical mode
// changes, which makes every cached listing suspect. Coarse, but code
// elsewhere relies on "navigation implies cold cache".
//
// The cache is accessed only from the dispatcher goroutine and holds no
// lock.
type ListingCache struct {
	entries    map[string][]models.ListEntry
	hits       uint64
	misses     uint64
	trackedCWD string
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits       uint64
	Misses     uint64
	Entries    int
	TrackedCWD string
}

// NewListingCache creates an empty cache.
func NewListingCache() *ListingCache {
	return &ListingCache{entries: make(map[string][]models.ListEntry)}
}

// Get returns the cached listing for path. Counts a hit or a miss; a
// miss is a normal outcome, not an error. Never fetches remotely.
func (c *ListingCache) Get(path string) ([]models.ListEntry, bool) {
	entries, ok := c.entries[path]
	if ok {
		c.hits++
		metrics.RecordCacheHit()
	} else {
		c.misses++
		metrics.RecordCacheMiss()
	}
	return entries, ok
}

// Set stores a listing for path, overwriting any previous entry.
func (c *ListingCache) Set(path string, entries []models.ListEntry) {
	c.entries[path] = entries
	metrics.SetCacheEntries(len(c.entries))
}

// Invalidate deletes the entry for path, if any.
func (c *ListingCache) Invalidate(path string) {
	delete(c.entries, path)
	metrics.RecordCacheInvalidation("path")
	metrics.SetCacheEntries(len(c.entries))
}

// Clear removes every entry.
func (c *ListingCache) Clear() {
	c.entries = make(map[string][]models.ListEntry)
	metrics.RecordCacheInvalidation("full")
	metrics.SetCacheEntries(0)
}

// CWDUpdate records a working-directory change. When the directory
// actually changed, the whole cache is cleared; repeated updates with
// the same directory are no-ops.
func (c *ListingCache) CWDUpdate(newCWD string) {
	if newCWD == c.trackedCWD {
		return
	}
	c.trackedCWD = newCWD
	c.Clear()
}

// Stats returns a snapshot of the counters.
func (c *ListingCache) Stats() CacheStats {
	return CacheStats{
		Hits:       c.hits,
		Misses:     c.misses,
		Entries:    len(c.entries),
		TrackedCWD: c.trackedCWD,
	}
}

// ResetStats zeroes the hit/miss counters. Entries are untouched.
func (c *ListingCache) ResetStats() {
	c.hits = 0
	c.misses = 0
}
