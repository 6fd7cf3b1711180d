package shell

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fruitsalade/fruitshell/internal/logging"
	"github.com/fruitsalade/fruitshell/internal/metrics"
	"github.com/fruitsalade/fruitshell/pkg/models"
)

// SplitExecName parses a plugin-executable token of the form
// "<name>-v<version>". The split happens at the last "-v" so plugin
// names may themselves contain the substring. Returns ok=false when the
// marker is absent or either side of it is empty.
func SplitExecName(token string) (name, version string, ok bool) {
	i := strings.LastIndex(token, "-v")
	if i <= 0 || i+2 >= len(token) {
		return "", "", false
	}
	return token[:i], token[i+2:], true
}

// Interceptor recognizes plugin-executable tokens ahead of normal
// dispatch and serves their introspection flags.
type Interceptor struct {
	session *Session
}

// NewInterceptor creates an interceptor over the given session.
func NewInterceptor(session *Session) *Interceptor {
	return &Interceptor{session: session}
}

func (in *Interceptor) Name() string { return "plugin" }

// Handle inspects the verb for the <name>-v<version> pattern. Tokens
// without it pass through untouched. Recognized tokens with --help,
// --readme or --parameters are served here; without a recognized flag
// the line still falls through so the external tool can run the plugin.
func (in *Interceptor) Handle(ctx context.Context, cmd *CommandLine) Status {
	name, version, ok := SplitExecName(cmd.Verb)
	if !ok {
		return NotHandled
	}

	switch {
	case cmd.HasFlag("help", "h"):
		fmt.Printf("Usage: %s [--readme] [--parameters] [plugin args...]\n", cmd.Verb)
		fmt.Printf("Remote compute plugin %s version %s.\n", name, version)
		return Handled

	case cmd.HasFlag("readme"):
		plug, status := in.resolve(ctx, cmd.Verb, name, version)
		if plug == nil {
			return status
		}
		return in.printReadme(ctx, cmd.Verb, plug)

	case cmd.HasFlag("parameters"):
		plug, status := in.resolve(ctx, cmd.Verb, name, version)
		if plug == nil {
			return status
		}
		return in.printParameters(ctx, cmd.Verb, plug)
	}

	return NotHandled
}

// resolve maps {name, version} to a concrete catalog entry. The exact
// search endpoint may return fuzzy matches, so its top result is
// verified and a catalog-wide scan over all versions of name is used as
// fallback. Remote errors are reported here and surface as a nil
// plugin, never as a panic or an escaping error.
func (in *Interceptor) resolve(ctx context.Context, verb, name, version string) (*models.Plugin, Status) {
	remote := in.session.Remote()
	if remote == nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", verb, ErrNotConnected)
		metrics.RecordPluginResolution("error")
		return nil, HandledError
	}

	candidates, err := remote.SearchPlugins(ctx, name, version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", verb, err)
		metrics.RecordPluginResolution("error")
		return nil, HandledError
	}
	if len(candidates) > 0 && pluginMatches(candidates[0], name, version) {
		metrics.RecordPluginResolution("exact")
		return &candidates[0], Handled
	}

	logging.Debug("exact plugin search missed, scanning catalog",
		logging.String("name", name), logging.String("version", version))

	all, err := remote.ListPluginVersions(ctx, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", verb, err)
		metrics.RecordPluginResolution("error")
		return nil, HandledError
	}
	for i := range all {
		if pluginMatches(all[i], name, version) {
			metrics.RecordPluginResolution("scan")
			return &all[i], Handled
		}
	}

	fmt.Fprintf(os.Stderr, "%s: plugin %s version %s not found\n", verb, name, version)
	metrics.RecordPluginResolution("miss")
	return nil, HandledError
}

// pluginMatches checks an exact name+version match and that the
// candidate carries the full shape a resolution needs.
func pluginMatches(p models.Plugin, name, version string) bool {
	return p.ID != 0 && p.Name == name && p.Version == version &&
		p.Name != "" && p.Version != ""
}

func (in *Interceptor) printReadme(ctx context.Context, verb string, plug *models.Plugin) Status {
	text, err := in.session.Remote().PluginReadme(ctx, plug.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", verb, err)
		return HandledError
	}
	if strings.TrimSpace(text) == "" {
		fmt.Printf("%s has no README.\n", verb)
		return Handled
	}
	fmt.Println(text)
	return Handled
}

func (in *Interceptor) printParameters(ctx context.Context, verb string, plug *models.Plugin) Status {
	params, err := in.session.Remote().PluginParameters(ctx, plug.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", verb, err)
		return HandledError
	}
	renderParameters(os.Stdout, params)
	return Handled
}
