package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// alignRows pads each cell to its column's display width so the table reads
// correctly in a monospace font. Rows may have different cell counts.
func alignRows(rows [][]string) []string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, len(rows))
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == len(row)-1 {
				cells[i] = cell
				continue
			}
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		lines[r] = strings.TrimRight(strings.Join(cells, " | "), " ")
	}
	return lines
}
