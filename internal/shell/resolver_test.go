package shell

import (
	"context"
	"testing"
)

func TestAbs(t *testing.T) {
	_, _, r := newTestShell(newFakeRemote())
	r.session.SetCWD("/home/alice")

	for raw, want := range map[string]string{
		"":         "/home/alice",
		".":        "/home/alice",
		"..":       "/home",
		"docs":     "/home/alice/docs",
		"/data":    "/data",
		"../bob/x": "/home/bob/x",
		"a/./b":    "/home/alice/a/b",
	} {
		if got := r.Abs(raw); got != want {
			t.Errorf("Abs(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestListingReadThrough(t *testing.T) {
	remote := newFakeRemote()
	remote.addDir("/data", "a.txt", "sub/")
	_, _, r := newTestShell(remote)
	ctx := context.Background()

	entries, err := r.Listing(ctx, "/data")
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if remote.listCalls["/data"] != 1 {
		t.Errorf("fetches = %d, want 1", remote.listCalls["/data"])
	}

	if _, err := r.Listing(ctx, "/data"); err != nil {
		t.Fatalf("second Listing: %v", err)
	}
	if remote.listCalls["/data"] != 1 {
		t.Errorf("cache hit still fetched remotely (%d calls)", remote.listCalls["/data"])
	}
}

func TestListingNotConnected(t *testing.T) {
	cache := NewListingCache()
	session := NewSession(cache)
	r := NewResolver(session, cache)

	if _, err := r.Listing(context.Background(), "/data"); err != ErrNotConnected {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}

func TestResolveArgsJoinedProbe(t *testing.T) {
	remote := newFakeRemote()
	remote.addDir("/My Folder", "inside.txt")
	_, _, r := newTestShell(remote)

	paths := r.ResolveArgs(context.Background(), []string{"My", "Folder"}, false)

	if len(paths) != 1 || paths[0] != "/My Folder" {
		t.Fatalf("paths = %v, want [/My Folder]", paths)
	}
	if remote.listCalls["/My"] != 0 || remote.listCalls["/Folder"] != 0 {
		t.Error("joined probe success still resolved tokens separately")
	}
}

func TestResolveArgsProbeFallback(t *testing.T) {
	remote := newFakeRemote()
	remote.addDir("/a")
	remote.addDir("/b")
	_, _, r := newTestShell(remote)

	paths := r.ResolveArgs(context.Background(), []string{"a", "b"}, false)

	if len(paths) != 2 || paths[0] != "/a" || paths[1] != "/b" {
		t.Fatalf("paths = %v, want [/a /b]", paths)
	}
	// The probe's own failure stays internal.
	if remote.listCalls["/a b"] != 1 {
		t.Errorf("probe fetches for %q = %d, want 1", "/a b", remote.listCalls["/a b"])
	}
}

func TestResolveArgsSkipsProbeOnWildcard(t *testing.T) {
	remote := newFakeRemote()
	_, _, r := newTestShell(remote)

	paths := r.ResolveArgs(context.Background(), []string{"a.txt", "b*.txt"}, false)

	if len(paths) != 2 {
		t.Fatalf("paths = %v, want 2 independent paths", paths)
	}
	if remote.totalListCalls() != 0 {
		t.Error("wildcard tokens triggered a joined probe")
	}
}

func TestResolveArgsSkipsProbeWithFlags(t *testing.T) {
	remote := newFakeRemote()
	_, _, r := newTestShell(remote)

	paths := r.ResolveArgs(context.Background(), []string{"a", "b"}, true)

	if len(paths) != 2 {
		t.Fatalf("paths = %v, want 2 independent paths", paths)
	}
	if remote.totalListCalls() != 0 {
		t.Error("flagged command triggered a joined probe")
	}
}

func TestResolveArgsDefaults(t *testing.T) {
	_, _, r := newTestShell(newFakeRemote())
	r.session.SetCWD("/home")
	ctx := context.Background()

	if paths := r.ResolveArgs(ctx, nil, false); len(paths) != 1 || paths[0] != "/home" {
		t.Errorf("zero tokens: %v, want [/home]", paths)
	}
	if paths := r.ResolveArgs(ctx, []string{"x"}, false); len(paths) != 1 || paths[0] != "/home/x" {
		t.Errorf("one token: %v, want [/home/x]", paths)
	}
}

func TestEntry(t *testing.T) {
	remote := newFakeRemote()
	remote.addDir("/data", "a.txt", "sub/")
	_, _, r := newTestShell(remote)
	ctx := context.Background()

	entry, err := r.Entry(ctx, "/data/sub")
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if entry.Name != "sub" || !entry.IsDir() {
		t.Errorf("entry = %+v, want dir sub", entry)
	}

	if _, err := r.Entry(ctx, "/data/missing"); err == nil {
		t.Error("expected error for missing entry")
	}
}
