// Package stats contains session statistics calculations and reporting.
package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type column struct {
	title string
	right bool
}

var historyColumns = []column{
	{title: "Ended"},
	{title: "Duration"},
	{title: "LPM", right: true},
	{title: "Letters", right: true},
	{title: "Words", right: true},
	{title: "Ambig", right: true},
	{title: "Unknown", right: true},
	{title: "Text"},
}

// layoutRows pads cells by display width, so decoded text containing wide
// runes keeps the columns aligned.
func layoutRows(cols []column, rows [][]string) []string {
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = runewidth.StringWidth(c.title)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	out := make([]string, 0, len(rows)+1)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.title
	}
	out = append(out, layoutRow(cols, widths, header))
	for _, row := range rows {
		out = append(out, layoutRow(cols, widths, row))
	}
	return out
}

func layoutRow(cols []column, widths []int, row []string) string {
	var b strings.Builder
	for i := range cols {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		pad := widths[i] - runewidth.StringWidth(cell)
		if pad < 0 {
			pad = 0
		}
		if cols[i].right {
			b.WriteString(strings.Repeat(" ", pad))
			b.WriteString(cell)
		} else {
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", pad))
		}
	}
	return strings.TrimRight(b.String(), " ")
}
