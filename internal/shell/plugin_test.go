package shell

import (
	"context"
	"testing"

	"github.com/fruitsalade/fruitshell/pkg/models"
)

func TestSplitExecName(t *testing.T) {
	tests := []struct {
		token   string
		name    string
		version string
		ok      bool
	}{
		{"pl-simpledsapp-v2.1.3", "pl-simpledsapp", "2.1.3", true},
		{"dircopy-v1.0", "dircopy", "1.0", true},
		{"ls", "", "", false},
		{"-v1.0", "", "", false},
		{"plugin-v", "", "", false},
		{"pl-verify-v0.2", "pl-verify", "0.2", true},
	}

	for _, tt := range tests {
		name, version, ok := SplitExecName(tt.token)
		if ok != tt.ok || name != tt.name || version != tt.version {
			t.Errorf("SplitExecName(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.token, name, version, ok, tt.name, tt.version, tt.ok)
		}
	}
}

func TestInterceptorIgnoresPlainVerbs(t *testing.T) {
	session, _, _ := newTestShell(newFakeRemote())
	in := NewInterceptor(session)

	status := in.Handle(context.Background(), ParseLine("ls /data"))

	if status != NotHandled {
		t.Errorf("status = %v, want NotHandled", status)
	}
}

func TestInterceptorPassesThroughWithoutFlags(t *testing.T) {
	session, _, _ := newTestShell(newFakeRemote())
	in := NewInterceptor(session)

	status := in.Handle(context.Background(), ParseLine("pl-app-v1.0 /in /out"))

	if status != NotHandled {
		t.Errorf("status = %v, want NotHandled for execution fallthrough", status)
	}
}

func TestInterceptorHelp(t *testing.T) {
	session, _, _ := newTestShell(newFakeRemote())
	in := NewInterceptor(session)

	status := in.Handle(context.Background(), ParseLine("pl-app-v1.0 --help"))

	if status != Handled {
		t.Errorf("status = %v, want Handled", status)
	}
}

func TestResolveExactTopResult(t *testing.T) {
	remote := newFakeRemote()
	remote.searchResults = []models.Plugin{
		{ID: 7, Name: "pl-app", Version: "1.0"},
	}
	session, _, _ := newTestShell(remote)
	in := NewInterceptor(session)

	plug, status := in.resolve(context.Background(), "pl-app-v1.0", "pl-app", "1.0")

	if status != Handled || plug == nil {
		t.Fatalf("resolution failed: plug=%v status=%v", plug, status)
	}
	if plug.ID != 7 {
		t.Errorf("id = %d, want 7", plug.ID)
	}
}

func TestResolveScanFallback(t *testing.T) {
	// The exact-search endpoint is fuzzy and returns the wrong version
	// at the top; the catalog scan has the true pair.
	remote := newFakeRemote()
	remote.searchResults = []models.Plugin{
		{ID: 3, Name: "pl-app", Version: "2.0"},
	}
	remote.catalogResults = []models.Plugin{
		{ID: 3, Name: "pl-app", Version: "2.0"},
		{ID: 9, Name: "pl-app", Version: "1.0"},
	}
	session, _, _ := newTestShell(remote)
	in := NewInterceptor(session)

	plug, status := in.resolve(context.Background(), "pl-app-v1.0", "pl-app", "1.0")

	if status != Handled || plug == nil {
		t.Fatalf("resolution failed: plug=%v status=%v", plug, status)
	}
	if plug.ID != 9 {
		t.Errorf("id = %d, want 9 from catalog scan", plug.ID)
	}
}

func TestResolveRejectsIncompleteShape(t *testing.T) {
	// A candidate without a numeric id cannot be acted on.
	remote := newFakeRemote()
	remote.searchResults = []models.Plugin{
		{ID: 0, Name: "pl-app", Version: "1.0"},
	}
	remote.catalogResults = []models.Plugin{
		{ID: 0, Name: "pl-app", Version: "1.0"},
	}
	session, _, _ := newTestShell(remote)
	in := NewInterceptor(session)

	plug, status := in.resolve(context.Background(), "pl-app-v1.0", "pl-app", "1.0")

	if plug != nil || status != HandledError {
		t.Errorf("got plug=%v status=%v, want failed resolution", plug, status)
	}
}

func TestResolveRemoteErrorIsContained(t *testing.T) {
	remote := newFakeRemote()
	remote.searchErr = errNotFound
	session, _, _ := newTestShell(remote)
	in := NewInterceptor(session)

	plug, status := in.resolve(context.Background(), "pl-app-v1.0", "pl-app", "1.0")

	if plug != nil || status != HandledError {
		t.Errorf("got plug=%v status=%v, want contained failure", plug, status)
	}
}

func TestInterceptorReadme(t *testing.T) {
	remote := newFakeRemote()
	remote.searchResults = []models.Plugin{{ID: 5, Name: "pl-app", Version: "1.0"}}
	remote.readmes[5] = "# pl-app\nDoes things."
	session, _, _ := newTestShell(remote)
	in := NewInterceptor(session)

	status := in.Handle(context.Background(), ParseLine("pl-app-v1.0 --readme"))

	if status != Handled {
		t.Errorf("status = %v, want Handled", status)
	}
}

func TestInterceptorNotConnected(t *testing.T) {
	cache := NewListingCache()
	session := NewSession(cache)
	in := NewInterceptor(session)

	status := in.Handle(context.Background(), ParseLine("pl-app-v1.0 --parameters"))

	if status != HandledError {
		t.Errorf("status = %v, want HandledError", status)
	}
}
