// Package diag holds the CLI-facing reporting helpers shared by
// cmd/intercal's subcommands: humanized statement/error counters, TTY
// detection to decide whether IE-code reports get colorized, and
// terminal-width wrapping for AST/source dumps.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// defaultWidth is used when the output isn't a terminal (piped to a
// file, or term.GetSize fails).
const defaultWidth = 80

// ColorEnabled reports whether w should receive ANSI color codes: only
// when it's backed by a real terminal, matching how an interactive CLI
// decides to colorize without corrupting piped output.
func ColorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// TerminalWidth returns w's terminal column width, or defaultWidth if w
// isn't a terminal or the ioctl fails.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

// Wrap breaks text into lines no wider than width, breaking only at
// spaces (used to keep --dump-ast output readable in a narrow
// terminal without cutting a token in half).
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		if i > 0 {
			if lineLen+1+len(word) > width {
				out.WriteByte('\n')
				lineLen = 0
			} else {
				out.WriteByte(' ')
				lineLen++
			}
		}
		out.WriteString(word)
		lineLen += len(word)
	}
	return out.String()
}

// Colorize wraps s in the given ANSI SGR code if enabled is true,
// otherwise returns s unchanged.
func Colorize(enabled bool, sgr, s string) string {
	if !enabled {
		return s
	}
	return fmt.Sprintf("\x1b[%sm%s\x1b[0m", sgr, s)
}

const (
	sgrRed    = "31"
	sgrYellow = "33"
	sgrGreen  = "32"
)

// ReportError formats an IE-coded runtime failure for display,
// colorized red when w is a terminal.
func ReportError(w io.Writer, err error) {
	fmt.Fprintln(w, Colorize(ColorEnabled(w), sgrRed, err.Error()))
}

// Summary describes one compile-and-run attempt for the human-readable
// tail line a CLI prints after a file finishes.
type Summary struct {
	Statements int
	Errors     int
	Elapsed    string
}

// Render formats the summary the way `intercal run` prints its final
// status line: statement counts humanized for readability, colorized
// green on success and red when any error occurred.
func (s Summary) Render(w io.Writer) string {
	color := ColorEnabled(w)
	count := humanize.Comma(int64(s.Statements))
	if s.Errors > 0 {
		return Colorize(color, sgrRed, fmt.Sprintf("%s statements executed, %d error(s), %s",
			count, s.Errors, s.Elapsed))
	}
	return Colorize(color, sgrGreen, fmt.Sprintf("%s statements executed, %s", count, s.Elapsed))
}
