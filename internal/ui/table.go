package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

// Table renders dependency rows in aligned columns. Empty cells are shown
// as "-" so columns stay readable.
type Table struct {
	w *tabwriter.Writer
}

// NewTable creates a table writer with the given column headers. Headers are
// bold when out is a terminal.
func NewTable(out io.Writer, headers ...string) *Table {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if IsTerminal(out) {
		bold := lipgloss.NewRenderer(out).NewStyle().Bold(true)
		for i, h := range headers {
			headers[i] = bold.Render(h)
		}
	}
	_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return &Table{w: tw}
}

// Row appends a row of values.
func (t *Table) Row(values ...any) {
	parts := make([]string, len(values))
	for i, v := range values {
		s := fmt.Sprintf("%v", v)
		if s == "" {
			s = "-"
		}
		parts[i] = s
	}
	_, _ = fmt.Fprintln(t.w, strings.Join(parts, "\t"))
}

// Flush writes the buffered output.
func (t *Table) Flush() error {
	return t.w.Flush()
}
