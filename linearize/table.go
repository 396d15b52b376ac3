package linearize

import (
	"strings"

	"github.com/poiesic/relayout/core"
)

// FlattenRow renders a table row as a single line of cells joined by
// core.CellSeparator. It reports false when every cell is empty.
func FlattenRow(row core.Row) (string, bool) {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = CellText(cell)
	}
	return JoinCells(cells)
}

// JoinCells strips the trailing run of empty cells and joins the rest.
// Interior empty cells are kept so columns stay in place.
func JoinCells(cells []string) (string, bool) {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}
	if end == 0 {
		return "", false
	}
	return strings.Join(cells[:end], core.CellSeparator), true
}

// CellText collects the normalized text of everything laid out inside a
// cell, depth-first, joined with single spaces.
func CellText(cell core.Cell) string {
	var parts []string

	stack := pushReversed(nil, cell.Blocks)
	for len(stack) > 0 {
		block := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch b := block.(type) {
		case *core.TextBlock:
			if b == nil {
				continue
			}
			if t := Flatten(b.Text); t != "" {
				parts = append(parts, t)
			}
			stack = pushReversed(stack, b.Children)
		case *core.TableBlock:
			if b == nil {
				continue
			}
			// Nested tables contribute their cells in row order.
			for i := len(b.Rows) - 1; i >= 0; i-- {
				for j := len(b.Rows[i].Cells) - 1; j >= 0; j-- {
					stack = pushReversed(stack, b.Rows[i].Cells[j].Blocks)
				}
			}
		case *core.ListBlock:
			if b == nil {
				continue
			}
			for _, entry := range b.Entries {
				if t := Flatten(entry.Text); t != "" {
					parts = append(parts, t)
				}
			}
		}
	}

	return strings.Join(parts, " ")
}
