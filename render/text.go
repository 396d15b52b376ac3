package render

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/poiesic/relayout/core"
)

// TextRenderer writes plain text with underlined title and headings.
type TextRenderer struct{}

func (t *TextRenderer) Extension() string { return ".txt" }

func (t *TextRenderer) Render(w io.Writer, title string, blocks []core.ContentBlock) error {
	var sb strings.Builder
	if title != "" {
		underline(&sb, title, "=")
	}

	for i, block := range blocks {
		inList := block.Kind == core.BlockBulletItem && i > 0 && blocks[i-1].Kind == core.BlockBulletItem
		if sb.Len() > 0 && !inList {
			sb.WriteString("\n")
		}

		switch block.Kind {
		case core.BlockHeading:
			underline(&sb, block.Text, "-")
		case core.BlockBulletItem:
			sb.WriteString("  • ")
			sb.WriteString(block.Text)
			sb.WriteString("\n")
		case core.BlockTable:
			for _, line := range alignRows(block.Rows) {
				sb.WriteString("    ")
				sb.WriteString(line)
				sb.WriteString("\n")
			}
		default:
			sb.WriteString(block.Text)
			sb.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func underline(sb *strings.Builder, text, mark string) {
	sb.WriteString(text)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(mark, max(runewidth.StringWidth(text), 1)))
	sb.WriteString("\n")
}
