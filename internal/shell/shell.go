package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fruitsalade/fruitshell/internal/logging"
	"github.com/fruitsalade/fruitshell/pkg/protocol"
)

// Options configures a Shell.
type Options struct {
	// Dial constructs a server connection for the connect builtin and
	// for the initial connection.
	Dial func(serverURL string) Remote
	// ExternalTool is the fallback command for unrecognized verbs.
	ExternalTool string
	// HistoryFile persists input lines; empty disables it.
	HistoryFile string
	// Events optionally delivers server change notifications used to
	// invalidate cached listings.
	Events <-chan protocol.SSEEvent
}

// Shell wires the session, cache, resolver, completion and dispatch
// into the interactive loop. All mutable state is touched only from the
// goroutine running Run.
type Shell struct {
	session    *Session
	cache      *ListingCache
	resolver   *Resolver
	completer  *Completer
	dispatcher *Dispatcher
	editor     *Editor
	events     <-chan protocol.SSEEvent

	quitting bool
}

// New assembles a shell. The returned shell is not yet connected; call
// Connect or let the user run the connect builtin.
func New(opts Options) *Shell {
	cache := NewListingCache()
	session := NewSession(cache)
	resolver := NewResolver(session, cache)
	completer := NewCompleter(resolver)

	s := &Shell{
		session:   session,
		cache:     cache,
		resolver:  resolver,
		completer: completer,
		events:    opts.Events,
	}

	builtins := NewBuiltins(session, cache, resolver, opts.Dial, func() { s.quitting = true })
	s.dispatcher = NewDispatcher(
		NewInterceptor(session),
		builtins,
		NewExternalHandler(opts.ExternalTool),
	)
	s.editor = NewEditor(completer, opts.HistoryFile)
	return s
}

// Connect establishes the initial server connection.
func (s *Shell) Connect(ctx context.Context, remote Remote) error {
	if err := remote.Ping(ctx); err != nil {
		return err
	}
	s.session.Connect(remote)
	return nil
}

// Session exposes the shell's session, mainly for the entry point to
// inspect after Run returns.
func (s *Shell) Session() *Session {
	return s.session
}

// Run is the interactive loop: drain pending change events, show the
// prompt, read a line, dispatch it. One line is processed fully before
// the next is read. Returns nil on exit/quit or end of input.
func (s *Shell) Run(ctx context.Context) error {
	for !s.quitting {
		s.drainEvents()

		line, err := s.editor.ReadLine(ctx, s.prompt())
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(os.Stdout)
				return nil
			}
			return err
		}

		s.dispatcher.Dispatch(ctx, line)
	}
	return nil
}

// prompt renders "fruitshell:<cwd>$ ", with a disconnected marker.
func (s *Shell) prompt() string {
	if !s.session.Connected() {
		return fmt.Sprintf("fruitshell(offline):%s$ ", s.session.CWD())
	}
	return fmt.Sprintf("fruitshell:%s$ ", s.session.CWD())
}

// drainEvents applies all queued change events to the cache without
// blocking. Events are consumed on the dispatcher goroutine, between
// commands, so no locking is needed on the cache.
func (s *Shell) drainEvents() {
	if s.events == nil {
		return
	}
	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				s.events = nil
				return
			}
			logging.Debug("change event",
				logging.String("type", ev.Type), logging.String("path", ev.Path))
			s.cache.Invalidate(ev.Path)
			s.cache.Invalidate(parentOf(ev.Path))
		default:
			return
		}
	}
}
