package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Reporter prints the per-dependency status lines. When out is a terminal
// the dependency name is highlighted; otherwise lines are plain text.
type Reporter struct {
	out      io.Writer
	mu       sync.Mutex
	name     lipgloss.Style
	fetching lipgloss.Style
	present  lipgloss.Style
	warn     lipgloss.Style
	styled   bool
}

// NewReporter creates a reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	r := lipgloss.NewRenderer(out)
	return &Reporter{
		out:      out,
		name:     r.NewStyle().Bold(true),
		fetching: r.NewStyle().Foreground(lipgloss.Color("3")),
		present:  r.NewStyle().Foreground(lipgloss.Color("2")),
		warn:     r.NewStyle().Foreground(lipgloss.Color("1")),
		styled:   IsTerminal(out),
	}
}

// Fetching reports that name was not found and is about to be cloned.
func (r *Reporter) Fetching(name string) {
	r.line(r.render(r.name, name) + " " + r.render(r.fetching, "is"))
}

// Present reports that name already exists and nothing will be done.
func (r *Reporter) Present(name string) {
	r.line(r.render(r.name, name) + " " + r.render(r.present, "not"))
}

// Warn prints a highlighted warning line.
func (r *Reporter) Warn(format string, args ...any) {
	r.line(r.render(r.warn, fmt.Sprintf(format, args...)))
}

// Log prints an informational message.
func (r *Reporter) Log(format string, args ...any) {
	r.line(fmt.Sprintf(format, args...))
}

func (r *Reporter) render(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

func (r *Reporter) line(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintln(r.out, s)
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
