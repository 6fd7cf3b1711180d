package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/fruitsalade/fruitshell/internal/logging"
)

// Editor reads input lines. On a terminal it runs a raw-mode line
// editor with tab completion and in-session history; on a pipe it falls
// back to plain buffered reads so the shell stays scriptable.
type Editor struct {
	completer   *Completer
	historyFile string

	fd          int
	interactive bool
	terminal    *term.Terminal
	scanner     *bufio.Scanner

	ctx context.Context
}

// NewEditor creates an editor over stdin/stdout. historyFile may be
// empty to disable history persistence.
func NewEditor(completer *Completer, historyFile string) *Editor {
	ed := &Editor{
		completer:   completer,
		historyFile: historyFile,
		fd:          int(os.Stdin.Fd()),
	}
	ed.interactive = term.IsTerminal(ed.fd)

	if ed.interactive {
		screen := struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}
		ed.terminal = term.NewTerminal(screen, "")
		ed.terminal.AutoCompleteCallback = ed.autoComplete
	} else {
		ed.scanner = bufio.NewScanner(os.Stdin)
	}
	return ed
}

// Interactive reports whether input comes from a terminal.
func (ed *Editor) Interactive() bool {
	return ed.interactive
}

// ReadLine reads one line, showing prompt when interactive. Returns
// io.EOF when input is exhausted. The terminal is kept in raw mode only
// for the duration of the read, so spawned subprocesses see a sane
// terminal.
func (ed *Editor) ReadLine(ctx context.Context, prompt string) (string, error) {
	if !ed.interactive {
		if !ed.scanner.Scan() {
			if err := ed.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return ed.scanner.Text(), nil
	}

	oldState, err := term.MakeRaw(ed.fd)
	if err != nil {
		return "", err
	}
	defer term.Restore(ed.fd, oldState)

	ed.ctx = ctx
	ed.terminal.SetPrompt(prompt)
	line, err := ed.terminal.ReadLine()
	ed.ctx = nil
	if err != nil {
		return "", err
	}

	if ed.historyFile != "" && strings.TrimSpace(line) != "" {
		ed.appendHistory(line)
	}
	return line, nil
}

// autoComplete serves the tab key. A single candidate replaces the
// matched prefix in place; several candidates are printed above the
// prompt and the line is left untouched.
func (ed *Editor) autoComplete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' || pos != len(line) {
		return "", 0, false
	}

	ctx := ed.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	candidates, prefix := ed.completer.Complete(ctx, line)

	switch len(candidates) {
	case 0:
		return "", 0, false
	case 1:
		completed := line[:len(line)-len(prefix)] + candidates[0]
		if !strings.HasSuffix(completed, "/") {
			completed += " "
		}
		return completed, len(completed), true
	}

	// The terminal redraws prompt and line after a write.
	fmt.Fprintln(ed.terminal, strings.Join(candidates, "  "))

	if common := commonPrefix(candidates); len(common) > len(prefix) {
		completed := line[:len(line)-len(prefix)] + common
		return completed, len(completed), true
	}
	return "", 0, false
}

func commonPrefix(candidates []string) string {
	common := candidates[0]
	for _, c := range candidates[1:] {
		for !strings.HasPrefix(c, common) {
			common = common[:len(common)-1]
			if common == "" {
				return ""
			}
		}
	}
	return common
}

// appendHistory persists one line. History failures never interrupt the
// prompt.
func (ed *Editor) appendHistory(line string) {
	f, err := os.OpenFile(ed.historyFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		logging.Debug("history append failed", logging.Err(err))
		return
	}
	defer f.Close()
	fmt.Fprintln(f, line)
}
