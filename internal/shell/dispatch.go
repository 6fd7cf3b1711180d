package shell

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/fruitsalade/fruitshell/internal/logging"
	"github.com/fruitsalade/fruitshell/internal/metrics"
)

// Status is the outcome of offering a command line to a handler.
type Status int

const (
	// NotHandled means the handler declined the line; the dispatcher
	// moves on to the next handler.
	NotHandled Status = iota
	// Handled means the line was consumed successfully.
	Handled
	// HandledError means the line was consumed but the command failed.
	// The failure has already been reported to the user.
	HandledError
)

// CommandLine is one tokenized input line. It lives for the duration of
// a single dispatch and is discarded afterwards.
type CommandLine struct {
	Verb       string
	Positional []string
	Flags      map[string]string
	Raw        string
}

// HasFlag reports whether any of the given flag names was supplied.
func (c *CommandLine) HasFlag(names ...string) bool {
	for _, n := range names {
		if _, ok := c.Flags[n]; ok {
			return true
		}
	}
	return false
}

// Flag returns the value of the first supplied flag among names, or ""
// when none is present.
func (c *CommandLine) Flag(names ...string) string {
	for _, n := range names {
		if v, ok := c.Flags[n]; ok {
			return v
		}
	}
	return ""
}

// ParseLine tokenizes a raw input line on whitespace. Tokens starting
// with "-" become flags ("--key=value" keeps the value, bare flags map
// to ""); everything else is positional. Returns nil for a blank line.
func ParseLine(raw string) *CommandLine {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}

	cmd := &CommandLine{
		Verb:  fields[0],
		Flags: make(map[string]string),
		Raw:   raw,
	}
	for _, tok := range fields[1:] {
		if len(tok) > 1 && strings.HasPrefix(tok, "-") {
			key := strings.TrimLeft(tok, "-")
			if eq := strings.Index(key, "="); eq >= 0 {
				cmd.Flags[key[:eq]] = key[eq+1:]
			} else {
				cmd.Flags[key] = ""
			}
			continue
		}
		cmd.Positional = append(cmd.Positional, tok)
	}
	return cmd
}

// Handler is one stage of the dispatch chain.
type Handler interface {
	Name() string
	Handle(ctx context.Context, cmd *CommandLine) Status
}

// Dispatcher routes each input line through an ordered handler chain:
// the plugin interceptor, the builtin table, then the external-tool
// fallback. The first handler that does not return NotHandled wins.
type Dispatcher struct {
	handlers []Handler
}

// NewDispatcher creates a dispatcher over the given handlers, tried in
// order.
func NewDispatcher(handlers ...Handler) *Dispatcher {
	return &Dispatcher{handlers: handlers}
}

// Dispatch processes one raw input line. Blank lines are no-ops. The
// dispatcher itself never fails; command errors are reported by the
// handler that encountered them.
func (d *Dispatcher) Dispatch(ctx context.Context, raw string) Status {
	cmd := ParseLine(raw)
	if cmd == nil {
		return Handled
	}

	for _, h := range d.handlers {
		status := h.Handle(ctx, cmd)
		if status == NotHandled {
			continue
		}
		metrics.RecordCommand(h.Name())
		logging.Debug("command dispatched",
			logging.String("verb", cmd.Verb),
			logging.String("handler", h.Name()),
			logging.Int("status", int(status)))
		return status
	}

	// Unreachable with the external fallback installed, but keep the
	// chain total.
	fmt.Fprintf(os.Stderr, "%s: command not found\n", cmd.Verb)
	return HandledError
}

// ExternalHandler delegates unrecognized lines to an external
// resource-operation tool, inheriting the shell's standard streams. It
// terminates the chain: every line offered to it is consumed.
type ExternalHandler struct {
	tool string
}

// NewExternalHandler creates the fallback handler running tool.
func NewExternalHandler(tool string) *ExternalHandler {
	return &ExternalHandler{tool: tool}
}

func (e *ExternalHandler) Name() string { return "external" }

// Handle runs `tool <line...>` and waits for it to exit before the next
// prompt is shown.
func (e *ExternalHandler) Handle(ctx context.Context, cmd *CommandLine) Status {
	args := strings.Fields(cmd.Raw)
	proc := exec.CommandContext(ctx, e.tool, args...)
	proc.Stdin = os.Stdin
	proc.Stdout = os.Stdout
	proc.Stderr = os.Stderr

	if err := proc.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			fmt.Fprintf(os.Stderr, "%s: %v\n", cmd.Verb, err)
		}
		return HandledError
	}
	return Handled
}
