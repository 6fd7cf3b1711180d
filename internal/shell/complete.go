package shell

import (
	"context"
	gopath "path"
	"strings"
)

// vocabulary is the fixed builtin command set, in the order completion
// publishes it.
var vocabulary = []string{
	"cache",
	"cat",
	"cd",
	"connect",
	"download",
	"exit",
	"help",
	"ls",
	"mkdir",
	"mv",
	"physical",
	"pwd",
	"quit",
	"rm",
	"touch",
	"tree",
	"upload",
}

// Completer produces candidate completions for a partial input line.
type Completer struct {
	resolver *Resolver
}

// NewCompleter creates a completer over the given resolver.
func NewCompleter(resolver *Resolver) *Completer {
	return &Completer{resolver: resolver}
}

// Complete returns the candidates for a partial line and the prefix
// they replace. A line without spaces completes against the builtin
// vocabulary; later tokens complete as paths.
func (c *Completer) Complete(ctx context.Context, line string) ([]string, string) {
	if !strings.Contains(line, " ") {
		var out []string
		for _, w := range vocabulary {
			if strings.HasPrefix(w, line) {
				out = append(out, w)
			}
		}
		return out, line
	}
	return c.completePath(ctx, line)
}

// completePath completes the last token of the line against the listing
// of its containing directory. Fetch failures yield zero candidates;
// completion must never surface an error at the prompt.
func (c *Completer) completePath(ctx context.Context, line string) ([]string, string) {
	partial := line[strings.LastIndex(line, " ")+1:]
	dir, base := gopath.Split(partial)

	entries, err := c.resolver.Listing(ctx, c.resolver.Abs(dir))
	if err != nil {
		return nil, partial
	}

	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name, base) {
			name := dir + e.Name
			if e.IsDir() {
				name += "/"
			}
			out = append(out, name)
		}
	}
	return out, partial
}
