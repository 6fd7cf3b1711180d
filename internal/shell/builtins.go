package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	gopath "path"
	"sort"

	"github.com/fruitsalade/fruitshell/pkg/client"
	"github.com/fruitsalade/fruitshell/pkg/models"
	"github.com/fruitsalade/fruitshell/pkg/protocol"
)

// Builtins is the fixed command table. Verbs match case-sensitively and
// exactly; anything else is declined so the dispatcher can fall through
// to the external tool.
type Builtins struct {
	session  *Session
	cache    *ListingCache
	resolver *Resolver
	dial     func(serverURL string) Remote
	quit     func()
	out      io.Writer
	errw     io.Writer
}

// NewBuiltins creates the builtin table. dial constructs a connection
// for the connect verb; quit is invoked by exit/quit.
func NewBuiltins(session *Session, cache *ListingCache, resolver *Resolver, dial func(string) Remote, quit func()) *Builtins {
	return &Builtins{
		session:  session,
		cache:    cache,
		resolver: resolver,
		dial:     dial,
		quit:     quit,
		out:      os.Stdout,
		errw:     os.Stderr,
	}
}

func (b *Builtins) Name() string { return "builtin" }

// Handle matches the verb against the builtin table. Failures are
// reported as a single line prefixed with the verb and never escape to
// the dispatcher loop.
func (b *Builtins) Handle(ctx context.Context, cmd *CommandLine) Status {
	var fn func(context.Context, *CommandLine) error
	switch cmd.Verb {
	case "cache":
		fn = b.cacheCmd
	case "cat":
		fn = b.cat
	case "cd":
		fn = b.cd
	case "connect":
		fn = b.connect
	case "download":
		fn = b.download
	case "exit", "quit":
		b.quit()
		return Handled
	case "help":
		fn = b.help
	case "ls":
		fn = b.ls
	case "mkdir":
		fn = b.mkdir
	case "mv":
		fn = b.mv
	case "physical":
		fn = b.physical
	case "pwd":
		fn = b.pwd
	case "rm":
		fn = b.rm
	case "touch":
		fn = b.touch
	case "tree":
		fn = b.tree
	case "upload":
		fn = b.upload
	default:
		return NotHandled
	}

	if err := fn(ctx, cmd); err != nil {
		fmt.Fprintf(b.errw, "%s: %v\n", cmd.Verb, err)
		return HandledError
	}
	return Handled
}

func (b *Builtins) pwd(ctx context.Context, cmd *CommandLine) error {
	cwd := b.session.CWD()
	if cmd.HasFlag("t", "titles") && b.session.Connected() {
		cwd = DisplayPath(ctx, b.session.Remote(), cwd)
	}
	fmt.Fprintln(b.out, cwd)
	return nil
}

func (b *Builtins) cd(ctx context.Context, cmd *CommandLine) error {
	target := b.session.CWD()
	if len(cmd.Positional) > 0 {
		target = b.resolver.ResolveArgs(ctx, cmd.Positional, len(cmd.Flags) > 0)[0]
	} else {
		target = "/"
	}

	// Validate the target with a listing fetch before committing; the
	// cwd change then wipes the cache, so a follow-up ls starts cold.
	if _, err := b.resolver.Listing(ctx, target); err != nil {
		return fmt.Errorf("%s: %w", target, err)
	}
	b.session.SetCWD(target)
	return nil
}

func (b *Builtins) ls(ctx context.Context, cmd *CommandLine) error {
	paths := b.resolver.ResolveArgs(ctx, cmd.Positional, len(cmd.Flags) > 0)

	var entries []models.ListEntry
	if len(paths) == 1 {
		listed, err := b.resolver.Listing(ctx, paths[0])
		if err == nil {
			// Copy: the listing aliases the cache's backing slice, and
			// the filter/sort below must not touch the cached entry.
			entries = append([]models.ListEntry(nil), listed...)
		} else {
			// Not listable as a directory; show the entry itself.
			entry, entryErr := b.resolver.Entry(ctx, paths[0])
			if entryErr != nil {
				return fmt.Errorf("%s: %w", paths[0], err)
			}
			entries = []models.ListEntry{entry}
		}
	} else {
		// Pre-expanded names are listed as themselves, not as
		// directory contents.
		for _, p := range paths {
			entry, err := b.resolver.Entry(ctx, p)
			if err != nil {
				fmt.Fprintf(b.errw, "ls: %v\n", err)
				continue
			}
			entries = append(entries, entry)
		}
	}

	if cmd.HasFlag("d", "dirs") {
		entries = onlyDirs(entries)
	}
	sortEntries(entries, cmd.Flag("sort"), cmd.HasFlag("r", "reverse"))
	renderEntries(b.out, entries, cmd.HasFlag("l", "long"))
	return nil
}

func (b *Builtins) cat(ctx context.Context, cmd *CommandLine) error {
	if len(cmd.Positional) == 0 {
		return errors.New("usage: cat <path>")
	}
	remote := b.session.Remote()
	if remote == nil {
		return ErrNotConnected
	}

	abs := b.resolver.ResolveArgs(ctx, cmd.Positional, len(cmd.Flags) > 0)[0]
	phys, err := b.resolver.Physical(ctx, abs)
	if err != nil {
		return fmt.Errorf("%s: %w", abs, err)
	}

	body, _, err := remote.FetchContent(ctx, phys, 0, 0)
	if err != nil {
		return fmt.Errorf("%s: %w", abs, err)
	}
	defer body.Close()

	if _, err := io.Copy(b.out, body); err != nil {
		return fmt.Errorf("%s: %w", abs, err)
	}
	return nil
}

func (b *Builtins) mkdir(ctx context.Context, cmd *CommandLine) error {
	return b.createEach(ctx, cmd, "mkdir <path>...", func(remote Remote, abs string) error {
		return remote.Mkdir(ctx, abs)
	})
}

func (b *Builtins) touch(ctx context.Context, cmd *CommandLine) error {
	return b.createEach(ctx, cmd, "touch <path>...", func(remote Remote, abs string) error {
		return remote.Touch(ctx, abs)
	})
}

// createEach applies op to every positional path. New paths cannot pass
// the joined probe, so tokens resolve independently here.
func (b *Builtins) createEach(ctx context.Context, cmd *CommandLine, usage string, op func(Remote, string) error) error {
	if len(cmd.Positional) == 0 {
		return errors.New("usage: " + usage)
	}
	remote := b.session.Remote()
	if remote == nil {
		return ErrNotConnected
	}

	for _, tok := range cmd.Positional {
		abs := b.resolver.Abs(tok)
		if err := op(remote, abs); err != nil {
			return fmt.Errorf("%s: %w", abs, err)
		}
		b.cache.Invalidate(parentOf(abs))
	}
	return nil
}

func (b *Builtins) mv(ctx context.Context, cmd *CommandLine) error {
	if len(cmd.Positional) != 2 {
		return errors.New("usage: mv <source> <destination>")
	}
	remote := b.session.Remote()
	if remote == nil {
		return ErrNotConnected
	}

	src := b.resolver.Abs(cmd.Positional[0])
	dst := b.resolver.Abs(cmd.Positional[1])
	if err := remote.Move(ctx, src, dst); err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}

	b.cache.Invalidate(src)
	b.cache.Invalidate(parentOf(src))
	b.cache.Invalidate(parentOf(dst))
	return nil
}

func (b *Builtins) rm(ctx context.Context, cmd *CommandLine) error {
	if len(cmd.Positional) == 0 {
		return errors.New("usage: rm <path>...")
	}
	remote := b.session.Remote()
	if remote == nil {
		return ErrNotConnected
	}

	for _, abs := range b.resolver.ResolveArgs(ctx, cmd.Positional, len(cmd.Flags) > 0) {
		if err := remote.Delete(ctx, abs); err != nil {
			return fmt.Errorf("%s: %w", abs, err)
		}
		b.cache.Invalidate(abs)
		b.cache.Invalidate(parentOf(abs))
	}
	return nil
}

func (b *Builtins) upload(ctx context.Context, cmd *CommandLine) error {
	if len(cmd.Positional) == 0 {
		return errors.New("usage: upload <local-file> [remote-dir]")
	}
	remote := b.session.Remote()
	if remote == nil {
		return ErrNotConnected
	}

	local := cmd.Positional[0]
	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	dir := b.session.CWD()
	if len(cmd.Positional) > 1 {
		dir = b.resolver.Abs(cmd.Positional[1])
	}
	abs := joinChild(dir, gopath.Base(local))

	resp, err := remote.Upload(ctx, abs, f, info.Size(), 0)
	if err != nil {
		if conflict, ok := client.AsConflict(err); ok {
			return fmt.Errorf("%s: version conflict (server has version %d)", abs, conflict.CurrentVersion)
		}
		return fmt.Errorf("%s: %w", abs, err)
	}

	b.cache.Invalidate(dir)
	fmt.Fprintf(b.out, "Uploaded %s (%s, version %d)\n", abs, formatSize(info.Size()), resp.Version)
	return nil
}

func (b *Builtins) download(ctx context.Context, cmd *CommandLine) error {
	if len(cmd.Positional) == 0 {
		return errors.New("usage: download <remote-path> [local-file]")
	}
	remote := b.session.Remote()
	if remote == nil {
		return ErrNotConnected
	}

	abs := b.resolver.Abs(cmd.Positional[0])
	local := gopath.Base(abs)
	if len(cmd.Positional) > 1 {
		local = cmd.Positional[1]
	}

	phys, err := b.resolver.Physical(ctx, abs)
	if err != nil {
		return fmt.Errorf("%s: %w", abs, err)
	}
	body, size, err := remote.FetchContent(ctx, phys, 0, 0)
	if err != nil {
		return fmt.Errorf("%s: %w", abs, err)
	}
	defer body.Close()

	f, err := os.Create(local)
	if err != nil {
		return err
	}
	defer f.Close()

	written, err := io.Copy(f, body)
	if err != nil {
		return fmt.Errorf("%s: %w", abs, err)
	}
	if size > 0 && written != size {
		return fmt.Errorf("%s: short download (%d of %d bytes)", abs, written, size)
	}
	fmt.Fprintf(b.out, "Downloaded %s (%s)\n", local, formatSize(written))
	return nil
}

func (b *Builtins) tree(ctx context.Context, cmd *CommandLine) error {
	root := b.session.CWD()
	if len(cmd.Positional) > 0 {
		root = b.resolver.ResolveArgs(ctx, cmd.Positional, len(cmd.Flags) > 0)[0]
	}

	fmt.Fprintln(b.out, root)
	return b.treeWalk(ctx, root, "", 1, treeDepth(cmd))
}

func treeDepth(cmd *CommandLine) int {
	if v := cmd.Flag("depth", "L"); v != "" {
		var d int
		if _, err := fmt.Sscanf(v, "%d", &d); err == nil && d > 0 {
			return d
		}
	}
	return 5
}

func (b *Builtins) treeWalk(ctx context.Context, dir, indent string, depth, maxDepth int) error {
	entries, err := b.resolver.Listing(ctx, dir)
	if err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}

	for i, e := range entries {
		branch, childIndent := "├── ", indent+"│   "
		if i == len(entries)-1 {
			branch, childIndent = "└── ", indent+"    "
		}
		fmt.Fprintf(b.out, "%s%s%s\n", indent, branch, e.Name)

		if e.IsDir() && depth < maxDepth {
			child := joinChild(dir, e.Name)
			if err := b.treeWalk(ctx, child, childIndent, depth+1, maxDepth); err != nil {
				fmt.Fprintf(b.errw, "tree: %v\n", err)
			}
		}
	}
	return nil
}

func (b *Builtins) connect(ctx context.Context, cmd *CommandLine) error {
	if len(cmd.Positional) == 0 {
		return errors.New("usage: connect <server-url>")
	}

	remote := b.dial(cmd.Positional[0])
	if err := remote.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", cmd.Positional[0], err)
	}
	b.session.Connect(remote)
	fmt.Fprintf(b.out, "Connected to %s\n", cmd.Positional[0])
	return nil
}

func (b *Builtins) physical(ctx context.Context, cmd *CommandLine) error {
	if len(cmd.Positional) == 0 {
		mode := "off"
		if b.session.PhysicalMode() {
			mode = "on"
		}
		fmt.Fprintf(b.out, "physical mode: %s\n", mode)
		return nil
	}

	switch cmd.Positional[0] {
	case "on":
		b.session.SetPhysicalMode(true)
	case "off":
		b.session.SetPhysicalMode(false)
	default:
		return errors.New("usage: physical [on|off]")
	}
	return nil
}

func (b *Builtins) cacheCmd(ctx context.Context, cmd *CommandLine) error {
	sub := "stats"
	if len(cmd.Positional) > 0 {
		sub = cmd.Positional[0]
	}

	switch sub {
	case "stats":
		stats := b.cache.Stats()
		fmt.Fprintln(b.out, "Listing Cache")
		fmt.Fprintln(b.out, "-------------")
		fmt.Fprintf(b.out, "Hits:     %d\n", stats.Hits)
		fmt.Fprintf(b.out, "Misses:   %d\n", stats.Misses)
		fmt.Fprintf(b.out, "Entries:  %d\n", stats.Entries)
		fmt.Fprintf(b.out, "Tracked:  %s\n", stats.TrackedCWD)
	case "clear":
		b.cache.Clear()
		fmt.Fprintln(b.out, "Cache cleared")
	case "reset":
		b.cache.ResetStats()
		fmt.Fprintln(b.out, "Counters reset")
	default:
		return errors.New("usage: cache [stats|clear|reset]")
	}
	return nil
}

func (b *Builtins) help(ctx context.Context, cmd *CommandLine) error {
	fmt.Fprintln(b.out, `Builtin commands:
  cache [stats|clear|reset]          Listing cache inspection
  cat <path>                         Print file content
  cd [path]                          Change directory
  connect <server-url>               Connect to a server
  download <remote> [local]          Download a file
  exit, quit                         Leave the shell
  help                               This message
  ls [-l] [-r] [-d] [--sort=key]     List a directory (key: name,size,date,owner)
  mkdir <path>...                    Create directories
  mv <source> <destination>          Move or rename
  physical [on|off]                  Toggle physical path addressing
  pwd [-t]                           Print working directory (-t: titles)
  rm <path>...                       Delete entries
  touch <path>...                    Create empty files
  tree [path] [--depth=N]            Recursive listing
  upload <local-file> [remote-dir]   Upload a file

Plugin executables:
  <name>-v<version> --readme         Show a plugin's README
  <name>-v<version> --parameters     Show a plugin's parameters

Anything else is passed to the external tool.`)
	return nil
}

func onlyDirs(entries []models.ListEntry) []models.ListEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e)
		}
	}
	return out
}

// sortEntries orders entries by key; listings arrive name-sorted from
// the server, so name order without reverse is a no-op.
func sortEntries(entries []models.ListEntry, key string, reverse bool) {
	less := func(i, j int) bool { return entries[i].Name < entries[j].Name }
	switch protocol.SortKey(key) {
	case protocol.SortSize:
		less = func(i, j int) bool { return entries[i].Size < entries[j].Size }
	case protocol.SortDate:
		less = func(i, j int) bool { return entries[i].ModTime.Before(entries[j].ModTime) }
	case protocol.SortOwner:
		less = func(i, j int) bool { return entries[i].Owner < entries[j].Owner }
	}
	if reverse {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(entries, less)
}

func parentOf(abs string) string {
	parent := gopath.Dir(abs)
	if parent == "" {
		return "/"
	}
	return parent
}
