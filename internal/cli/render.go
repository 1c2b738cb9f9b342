// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jeranaias/botline/internal/util"
)

// =============================================================================
// MARKDOWN
// =============================================================================

// markdown renders bot replies. Rendering is skipped when disabled in the
// config or when stdout is not a terminal.
type markdown struct {
	renderer *glamour.TermRenderer
}

func newMarkdown(enabled bool, theme string, out io.Writer) *markdown {
	if !enabled || !isTerminal(out) || !ColorsEnabled() {
		return &markdown{}
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(terminalWidth(out) - 4)}
	switch theme {
	case "dark", "light":
		opts = append(opts, glamour.WithStandardStyle(theme))
	default:
		style := "dark"
		if !hasDarkBackground() {
			style = "light"
		}
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return &markdown{}
	}
	return &markdown{renderer: r}
}

// Render returns content formatted for the terminal, or content itself.
func (m *markdown) Render(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// =============================================================================
// NUMBERS
// =============================================================================

var numbers = message.NewPrinter(language.English)

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	return numbers.Sprintf("%d", n)
}

// formatRating renders an average rating with one decimal.
func formatRating(v float64) string {
	return numbers.Sprintf("%.1f / 5", v)
}

// =============================================================================
// TABLES
// =============================================================================

// table writes fixed-width columns measured in terminal cells, so wide
// characters in names do not break alignment.
type table struct {
	headers []string
	widths  []int
	rows    [][]string
}

func newTable(headers ...string) *table {
	t := &table{headers: headers, widths: make([]int, len(headers))}
	for i, h := range headers {
		t.widths[i] = util.StringWidth(h)
	}
	return t
}

// maxCellWidth caps any single column.
const maxCellWidth = 40

func (t *table) Row(cells ...any) {
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = util.TruncateWidth(util.SingleLine(fmt.Sprint(cells[i])), maxCellWidth)
		}
		t.widths[i] = max(t.widths[i], util.StringWidth(row[i]))
	}
	t.rows = append(t.rows, row)
}

func (t *table) Len() int {
	return len(t.rows)
}

func (t *table) Write(w io.Writer) {
	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			if i == len(cells)-1 {
				parts[i] = c
				continue
			}
			parts[i] = util.PadRight(c, t.widths[i])
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	fmt.Fprintln(w, LabelStyle.UnsetWidth().Render(line(t.headers)))
	for _, row := range t.rows {
		fmt.Fprintln(w, line(row))
	}
}
