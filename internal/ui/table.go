package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column.
type Column struct {
	Title string
	Width int
}

// Row is a slice of cell values.
type Row []string

// Table renders a plain lipgloss-styled table for one-shot command output.
type Table struct {
	Columns []Column
	Rows    []Row
}

// NewTable creates a new table.
func NewTable(cols ...Column) *Table {
	return &Table{Columns: cols}
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, Row(cells))
}

// Render returns the table as a string. Cells are padded to the column width
// before styling so colour codes never count towards the width.
func (t *Table) Render() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)

	line := func(cells []string, style lipgloss.Style) {
		parts := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			parts[i] = style.Render(fit(val, col.Width))
		}
		sb.WriteString(strings.Join(parts, " "))
		sb.WriteString("\n")
	}

	titles := make([]string, len(t.Columns))
	rules := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		titles[i] = col.Title
		rules[i] = strings.Repeat("─", col.Width)
	}
	line(titles, headerStyle)
	line(rules, StyleDim)
	for _, r := range t.Rows {
		line(r, cellStyle)
	}
	return sb.String()
}

// KeyValueBlock renders labelled values in a bordered box.
func KeyValueBlock(title string, pairs [][2]string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteString("\n")
	}
	for _, p := range pairs {
		sb.WriteString("  " + padR(StyleMeta.Render(p[0]+":"), 16) + " " + StyleValue.Render(p[1]) + "\n")
	}
	return StyleBorder.Render(strings.TrimRight(sb.String(), "\n"))
}

// fit left-aligns s within exactly width runes, truncating with an ellipsis.
func fit(s string, width int) string {
	r := []rune(s)
	switch {
	case width <= 0:
		return ""
	case len(r) > width:
		if width == 1 {
			return "…"
		}
		return string(r[:width-1]) + "…"
	default:
		return s + strings.Repeat(" ", width-len(r))
	}
}
