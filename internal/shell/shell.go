// Package shell implements the interactive read-eval-print loop.
//
// The shell intercepts its own commands (/help, /exit, /history,
// /mode, with or without the slash) before anything reaches the
// assistant, so command lines never land in the transcript. Everything
// else becomes a question.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/parley-cli/parley/internal/assistant"
	"github.com/parley-cli/parley/internal/rules"
	"github.com/parley-cli/parley/internal/transcript"
)

// Banner printed before the first prompt.
const banner = "Small CLI AI assistant. Type /help for commands. (Ctrl-D or /exit to quit)"

var (
	bannerStyle = lipgloss.NewStyle().Bold(true)
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
)

// Shell runs the interactive loop for one assistant.
type Shell struct {
	assistant *assistant.Assistant
	in        io.Reader
	out       io.Writer
	logger    *slog.Logger
	styled    bool
}

// New builds a Shell reading from in and writing to out. Styling is
// applied only when out is a terminal.
func New(a *assistant.Assistant, in io.Reader, out io.Writer, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{
		assistant: a,
		in:        in,
		out:       out,
		logger:    logger,
		styled:    isTerminal(out),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (s *Shell) render(st lipgloss.Style, text string) string {
	if !s.styled {
		return text
	}
	return st.Render(text)
}

// Run reads lines until EOF, /exit, or ctx cancellation. Quitting by
// any of those is normal, not an error.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, s.render(bannerStyle, banner))
	if s.assistant.Mode() == assistant.ModeRemote {
		fmt.Fprintln(s.out, "OpenAI mode enabled.")
	}

	// A reader goroutine feeds lines through a channel so the loop can
	// notice ctx cancellation (Ctrl-C) while waiting for input. A Scan
	// already blocked on an idle reader cannot be interrupted, so after
	// cancellation the goroutine lingers until the next line or EOF.
	lines := make(chan string)
	scanner := bufio.NewScanner(s.in)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(s.out, s.render(promptStyle, "> "))

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return nil
		case line, ok = <-lines:
			if !ok {
				// EOF ends the session like Ctrl-D ends a shell.
				fmt.Fprintln(s.out)
				return scanner.Err()
			}
		}

		if line == "" {
			continue
		}
		cmd := strings.TrimSpace(line)

		switch cmd {
		case "/exit", "exit":
			return nil
		case "/help", "help":
			fmt.Fprintln(s.out, rules.HelpText)
			continue
		case "/history", "history":
			// The full transcript, unlike the history rule's last ten.
			fmt.Fprintln(s.out, transcript.FormatJSON(s.assistant.Transcript().All()))
			continue
		case "/mode", "mode":
			fmt.Fprintln(s.out, s.assistant.Mode().String())
			continue
		}

		fmt.Fprintln(s.out, s.assistant.Answer(ctx, cmd))
	}
}
