package shell

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

// DisplayPath substitutes human-readable titles into a path's segments:
// "feed_<id>" becomes the feed's name and "<anything>_<id>" the plugin
// instance's name and version. Lookups for all segments run
// concurrently and the joined result is built only after every lookup
// has settled; a failed lookup leaves its segment unchanged. Cosmetic
// only, the canonical path is untouched.
func DisplayPath(ctx context.Context, catalog RemoteTitleCatalog, abs string) string {
	if catalog == nil || abs == "/" {
		return abs
	}

	segments := strings.Split(abs, "/")
	titles := make([]string, len(segments))

	var wg sync.WaitGroup
	for i, seg := range segments {
		titles[i] = seg
		if _, ok := splitIDSuffix(seg); !ok {
			continue
		}
		wg.Add(1)
		go func(i int, seg string) {
			defer wg.Done()
			if title := lookupTitle(ctx, catalog, seg); title != "" {
				titles[i] = title
			}
		}(i, seg)
	}
	wg.Wait()

	return strings.Join(titles, "/")
}

// lookupTitle resolves one "<prefix>_<id>" segment. Empty return means
// no substitution.
func lookupTitle(ctx context.Context, catalog RemoteTitleCatalog, seg string) string {
	id, _ := splitIDSuffix(seg)

	if strings.HasPrefix(seg, "feed_") {
		feed, err := catalog.Feed(ctx, id)
		if err != nil || feed == nil || feed.Name == "" {
			return ""
		}
		return feed.Name
	}

	inst, err := catalog.PluginInstance(ctx, id)
	if err != nil || inst == nil || inst.PluginName == "" {
		return ""
	}
	return inst.PluginName + "-v" + inst.PluginVersion
}

// splitIDSuffix parses a segment of the form "<prefix>_<digits>".
func splitIDSuffix(seg string) (int, bool) {
	i := strings.LastIndex(seg, "_")
	if i <= 0 || i == len(seg)-1 {
		return 0, false
	}
	id, err := strconv.Atoi(seg[i+1:])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
