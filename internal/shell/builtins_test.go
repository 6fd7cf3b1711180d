package shell

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/fruitsalade/fruitshell/pkg/client"
)

// testBuiltins wires the builtin table over a fake remote with captured
// output.
func testBuiltins(remote Remote) (*Builtins, *fakeRemote, *bytes.Buffer) {
	session, cache, resolver := newTestShell(remote)
	b := NewBuiltins(session, cache, resolver, func(string) Remote { return remote }, func() {})
	out := &bytes.Buffer{}
	b.out = out
	b.errw = out
	return b, remote.(*fakeRemote), out
}

func TestCdThenLsSingleFetch(t *testing.T) {
	remote := newFakeRemote()
	remote.addDir("/", "data/")
	remote.addDir("/data", "a.txt", "b.txt")
	b, fake, _ := testBuiltins(remote)
	ctx := context.Background()

	if status := b.Handle(ctx, ParseLine("cd /data")); status != Handled {
		t.Fatalf("cd failed: %v", status)
	}

	// cd wiped the cache, so ls starts cold and fetches once.
	before := fake.listCalls["/data"]
	if status := b.Handle(ctx, ParseLine("ls")); status != Handled {
		t.Fatalf("ls failed: %v", status)
	}
	if got := fake.listCalls["/data"] - before; got != 1 {
		t.Errorf("first ls issued %d fetches, want 1", got)
	}

	// Immediate second ls is a pure cache hit.
	before = fake.listCalls["/data"]
	if status := b.Handle(ctx, ParseLine("ls")); status != Handled {
		t.Fatalf("second ls failed: %v", status)
	}
	if got := fake.listCalls["/data"] - before; got != 0 {
		t.Errorf("second ls issued %d fetches, want 0", got)
	}
}

func TestMutationInvalidatesListing(t *testing.T) {
	remote := newFakeRemote()
	remote.addDir("/", "data/")
	remote.addDir("/data", "a.txt")
	b, fake, _ := testBuiltins(remote)
	ctx := context.Background()

	b.Handle(ctx, ParseLine("cd /data"))
	b.Handle(ctx, ParseLine("ls"))

	if status := b.Handle(ctx, ParseLine("touch b.txt")); status != Handled {
		t.Fatalf("touch failed: %v", status)
	}

	before := fake.listCalls["/data"]
	b.Handle(ctx, ParseLine("ls"))
	if got := fake.listCalls["/data"] - before; got != 1 {
		t.Errorf("ls after mutation issued %d fetches, want 1 (stale cache)", got)
	}
}

func TestLsJoinedSpacePath(t *testing.T) {
	remote := newFakeRemote()
	remote.addDir("/", "My Folder/")
	remote.addDir("/My Folder", "inside.txt")
	b, fake, out := testBuiltins(remote)

	if status := b.Handle(context.Background(), ParseLine("ls My Folder")); status != Handled {
		t.Fatalf("ls failed: %v", status)
	}

	if !strings.Contains(out.String(), "inside.txt") {
		t.Errorf("output %q does not list the joined path's contents", out.String())
	}
	if fake.listCalls["/My"] != 0 || fake.listCalls["/Folder"] != 0 {
		t.Error("tokens were listed separately despite successful joined probe")
	}
}

func TestLsFilterLeavesCacheIntact(t *testing.T) {
	remote := newFakeRemote()
	remote.addDir("/data", "a.txt", "b/", "c.txt", "d/")
	b, _, _ := testBuiltins(remote)
	ctx := context.Background()

	b.resolver.Listing(ctx, "/data")

	if status := b.Handle(ctx, ParseLine("ls -d /data")); status != Handled {
		t.Fatalf("ls -d failed: %v", status)
	}

	cached, ok := b.cache.Get("/data")
	if !ok {
		t.Fatal("listing dropped from cache")
	}
	want := []string{"a.txt", "b", "c.txt", "d"}
	if len(cached) != len(want) {
		t.Fatalf("cached entry has %d items, want %d: %+v", len(cached), len(want), cached)
	}
	for i, name := range want {
		if cached[i].Name != name {
			t.Errorf("cached[%d] = %q, want %q", i, cached[i].Name, name)
		}
	}
}

func TestLsSortLeavesCacheIntact(t *testing.T) {
	remote := newFakeRemote()
	remote.addDir("/data", "a.txt", "b.txt", "c.txt")
	b, _, _ := testBuiltins(remote)
	ctx := context.Background()

	b.resolver.Listing(ctx, "/data")

	if status := b.Handle(ctx, ParseLine("ls -r /data")); status != Handled {
		t.Fatalf("ls -r failed: %v", status)
	}

	cached, _ := b.cache.Get("/data")
	if len(cached) != 3 || cached[0].Name != "a.txt" || cached[2].Name != "c.txt" {
		t.Errorf("cached order changed by reverse sort: %+v", cached)
	}
}

func TestUploadConflictReportsServerVersion(t *testing.T) {
	remote := newFakeRemote()
	remote.uploadErr = &client.ConflictError{
		Path:            "/data/f.txt",
		ExpectedVersion: 1,
		CurrentVersion:  3,
	}
	b, _, out := testBuiltins(remote)

	local, err := os.CreateTemp(t.TempDir(), "f-*.txt")
	if err != nil {
		t.Fatal(err)
	}
	local.WriteString("x")
	local.Close()

	status := b.Handle(context.Background(), ParseLine("upload "+local.Name()+" /data"))

	if status != HandledError {
		t.Fatalf("status = %v, want HandledError", status)
	}
	if !strings.Contains(out.String(), "server has version 3") {
		t.Errorf("conflict message %q does not name the server version", out.String())
	}
}

func TestCdRejectsMissingPath(t *testing.T) {
	remote := newFakeRemote()
	remote.addDir("/")
	b, _, out := testBuiltins(remote)

	session := b.session
	if status := b.Handle(context.Background(), ParseLine("cd /nope")); status != HandledError {
		t.Fatalf("status = %v, want HandledError", status)
	}
	if session.CWD() != "/" {
		t.Errorf("cwd moved to %q after failed cd", session.CWD())
	}
	if !strings.HasPrefix(out.String(), "cd: ") {
		t.Errorf("error not prefixed with verb: %q", out.String())
	}
}

func TestLsErrorsAreVerbPrefixed(t *testing.T) {
	b, _, out := testBuiltins(newFakeRemote())

	if status := b.Handle(context.Background(), ParseLine("ls /missing")); status != HandledError {
		t.Fatalf("status = %v, want HandledError", status)
	}
	if !strings.HasPrefix(out.String(), "ls: ") {
		t.Errorf("error not prefixed with verb: %q", out.String())
	}
}

func TestUnknownVerbNotHandled(t *testing.T) {
	b, _, _ := testBuiltins(newFakeRemote())

	if status := b.Handle(context.Background(), ParseLine("frobnicate")); status != NotHandled {
		t.Errorf("status = %v, want NotHandled for external fallthrough", status)
	}
}

func TestMvInvalidatesBothParents(t *testing.T) {
	remote := newFakeRemote()
	remote.addDir("/", "src/", "dst/")
	remote.addDir("/src", "f.txt")
	remote.addDir("/dst")
	remote.contents["/src/f.txt"] = "x"
	b, fake, _ := testBuiltins(remote)
	ctx := context.Background()

	// Warm both directory listings.
	b.resolver.Listing(ctx, "/src")
	b.resolver.Listing(ctx, "/dst")

	if status := b.Handle(ctx, ParseLine("mv /src/f.txt /dst/f.txt")); status != Handled {
		t.Fatalf("mv failed: %v", status)
	}

	if _, ok := b.cache.Get("/src"); ok {
		t.Error("source parent listing survived the move")
	}
	if _, ok := b.cache.Get("/dst"); ok {
		t.Error("destination parent listing survived the move")
	}
	if _, ok := fake.contents["/dst/f.txt"]; !ok {
		t.Error("content did not move")
	}
}

func TestPhysicalToggle(t *testing.T) {
	b, _, out := testBuiltins(newFakeRemote())
	ctx := context.Background()

	b.Handle(ctx, ParseLine("physical on"))
	if !b.session.PhysicalMode() {
		t.Error("physical on did not enable the mode")
	}

	out.Reset()
	b.Handle(ctx, ParseLine("physical"))
	if !strings.Contains(out.String(), "on") {
		t.Errorf("status output %q", out.String())
	}

	b.Handle(ctx, ParseLine("physical off"))
	if b.session.PhysicalMode() {
		t.Error("physical off did not disable the mode")
	}
}

func TestCacheStatsCommand(t *testing.T) {
	remote := newFakeRemote()
	remote.addDir("/data", "a.txt")
	b, _, out := testBuiltins(remote)
	ctx := context.Background()

	b.resolver.Listing(ctx, "/data")
	b.resolver.Listing(ctx, "/data")

	if status := b.Handle(ctx, ParseLine("cache stats")); status != Handled {
		t.Fatalf("cache stats failed: %v", status)
	}
	if !strings.Contains(out.String(), "Hits:     1") {
		t.Errorf("stats output missing hit count: %q", out.String())
	}

	out.Reset()
	b.Handle(ctx, ParseLine("cache clear"))
	if _, ok := b.cache.Get("/data"); ok {
		t.Error("cache clear left entries")
	}
}

func TestCatWritesContent(t *testing.T) {
	remote := newFakeRemote()
	remote.addDir("/", "hello.txt")
	remote.contents["/physical/hello.txt"] = "hello world\n"
	b, _, out := testBuiltins(remote)

	if status := b.Handle(context.Background(), ParseLine("cat /hello.txt")); status != Handled {
		t.Fatalf("cat failed: %v, output %q", status, out.String())
	}
	if out.String() != "hello world\n" {
		t.Errorf("cat output = %q", out.String())
	}
}

func TestExitRequestsQuit(t *testing.T) {
	session, cache, resolver := newTestShell(newFakeRemote())
	quit := false
	b := NewBuiltins(session, cache, resolver, nil, func() { quit = true })

	if status := b.Handle(context.Background(), ParseLine("exit")); status != Handled {
		t.Fatalf("exit status = %v", status)
	}
	if !quit {
		t.Error("exit did not request shutdown")
	}
}
