package render

import (
	"io"
	"strings"

	"github.com/poiesic/relayout/core"
)

// MarkdownRenderer writes CommonMark. Block text is escaped so that it reads
// back as the same block kind. Tables are written as fenced code blocks with
// aligned columns.
type MarkdownRenderer struct{}

func (m *MarkdownRenderer) Extension() string { return ".md" }

func (m *MarkdownRenderer) Render(w io.Writer, title string, blocks []core.ContentBlock) error {
	_, err := io.WriteString(w, m.markdown(title, blocks))
	return err
}

func (m *MarkdownRenderer) markdown(title string, blocks []core.ContentBlock) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString("# ")
		sb.WriteString(escapeMarkdown(title))
		sb.WriteString("\n")
	}

	for i, block := range blocks {
		// Consecutive bullet items form one list.
		inList := block.Kind == core.BlockBulletItem && i > 0 && blocks[i-1].Kind == core.BlockBulletItem
		if sb.Len() > 0 && !inList {
			sb.WriteString("\n")
		}

		switch block.Kind {
		case core.BlockHeading:
			sb.WriteString("## ")
			sb.WriteString(escapeMarkdown(block.Text))
			sb.WriteString("\n")
		case core.BlockBulletItem:
			sb.WriteString("- ")
			sb.WriteString(escapeMarkdown(block.Text))
			sb.WriteString("\n")
		case core.BlockTable:
			lines := alignRows(block.Rows)
			fence := codeFence(lines)
			sb.WriteString(fence + "\n")
			for _, line := range lines {
				sb.WriteString(line)
				sb.WriteString("\n")
			}
			sb.WriteString(fence + "\n")
		default:
			sb.WriteString(escapeMarkdown(block.Text))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
)

// escapeMarkdown escapes inline emphasis, code, link and HTML characters and
// any leading character that would open a heading, quote, list, thematic
// break or fence.
func escapeMarkdown(text string) string {
	text = inlineEscaper.Replace(text)
	if text == "" {
		return text
	}

	switch text[0] {
	case '#', '>', '-', '+', '=', '~':
		return `\` + text
	}

	// Ordered list markers are up to nine digits followed by '.' or ')'.
	digits := 0
	for digits < len(text) && digits < 10 && text[digits] >= '0' && text[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits <= 9 && digits < len(text) && (text[digits] == '.' || text[digits] == ')') {
		return text[:digits] + `\` + text[digits:]
	}
	return text
}

// codeFence returns a backtick fence longer than any backtick run in lines.
func codeFence(lines []string) string {
	longest := 0
	for _, line := range lines {
		run := 0
		for _, r := range line {
			if r != '`' {
				run = 0
				continue
			}
			run++
			longest = max(longest, run)
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}
