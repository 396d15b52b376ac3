// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "strings"

// Markers delimiting a table in the textual form of an annotated stream.
const (
	TableStartMarker = "[TABLE]"
	TableEndMarker   = "[/TABLE]"
)

// CellSeparator joins flattened table cells on a single line.
const CellSeparator = " | "

// LineKind identifies the kind of an annotated line.
type LineKind int

const (
	// LineText is a line of content.
	LineText LineKind = iota
	// LineBlank separates blocks.
	LineBlank
	// LineTableStart opens a table.
	LineTableStart
	// LineTableEnd closes a table.
	LineTableEnd
)

// AnnotatedLine is one element of the stream produced by the linearizer.
type AnnotatedLine struct {
	Kind LineKind
	Text string
}

// TextLine returns a content line.
func TextLine(text string) AnnotatedLine {
	return AnnotatedLine{Kind: LineText, Text: text}
}

// BlankLine returns a block separator.
func BlankLine() AnnotatedLine {
	return AnnotatedLine{Kind: LineBlank}
}

// TableStart returns the table opening marker.
func TableStart() AnnotatedLine {
	return AnnotatedLine{Kind: LineTableStart}
}

// TableEnd returns the table closing marker.
func TableEnd() AnnotatedLine {
	return AnnotatedLine{Kind: LineTableEnd}
}

// IsBlank reports whether the line is a block separator.
func (l AnnotatedLine) IsBlank() bool {
	return l.Kind == LineBlank
}

// String returns the textual form of the line.
func (l AnnotatedLine) String() string {
	switch l.Kind {
	case LineTableStart:
		return TableStartMarker
	case LineTableEnd:
		return TableEndMarker
	case LineBlank:
		return ""
	default:
		return l.Text
	}
}

// FormatLines renders an annotated stream in its textual form, one line per element.
// A text line that would read back as a blank or a table marker, or whose
// first non-space character is a backslash, is prefixed with a backslash.
func FormatLines(lines []AnnotatedLine) string {
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if line.Kind == LineText && needsEscape(line.Text) {
			sb.WriteByte('\\')
		}
		sb.WriteString(line.String())
	}
	return sb.String()
}

func needsEscape(text string) bool {
	switch trimmed := strings.TrimSpace(text); trimmed {
	case "", TableStartMarker, TableEndMarker:
		return true
	default:
		return strings.HasPrefix(trimmed, `\`)
	}
}

// ParseLines reads the textual form of an annotated stream.
// Lines that are empty after trimming become blank separators and lines equal
// to a table marker become marker lines. A text line whose first non-space
// character is a backslash has that backslash removed, which reverses the
// escaping done by FormatLines.
func ParseLines(text string) []AnnotatedLine {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := strings.Split(text, "\n")
	lines := make([]AnnotatedLine, 0, len(raw))
	for _, r := range raw {
		trimmed := strings.TrimSpace(r)
		switch {
		case trimmed == "":
			lines = append(lines, BlankLine())
		case trimmed == TableStartMarker:
			lines = append(lines, TableStart())
		case trimmed == TableEndMarker:
			lines = append(lines, TableEnd())
		case strings.HasPrefix(trimmed, `\`):
			i := strings.IndexByte(r, '\\')
			lines = append(lines, TextLine(strings.TrimRight(r[:i]+r[i+1:], " \t")))
		default:
			lines = append(lines, TextLine(strings.TrimRight(r, " \t")))
		}
	}
	return lines
}

// BlockKind identifies the kind of a content block.
type BlockKind int

const (
	// BlockHeading is a section heading.
	BlockHeading BlockKind = iota + 1
	// BlockParagraph is body text.
	BlockParagraph
	// BlockBulletItem is one entry of a bulleted list.
	BlockBulletItem
	// BlockTable is a table of cell strings.
	BlockTable
)

func (k BlockKind) String() string {
	switch k {
	case BlockHeading:
		return "heading"
	case BlockParagraph:
		return "paragraph"
	case BlockBulletItem:
		return "bullet"
	case BlockTable:
		return "table"
	default:
		return "unknown"
	}
}

// ParseBlockKind is the inverse of BlockKind.String.
func ParseBlockKind(s string) (BlockKind, error) {
	switch s {
	case "heading":
		return BlockHeading, nil
	case "paragraph":
		return BlockParagraph, nil
	case "bullet":
		return BlockBulletItem, nil
	case "table":
		return BlockTable, nil
	default:
		return 0, ErrInvalidBlockKind
	}
}

// ContentBlock is a typed unit of output ready for a renderer.
// Rows is only set for tables; Text is unused for tables.
type ContentBlock struct {
	Kind BlockKind
	Text string
	Rows [][]string
}

// Heading returns a heading block.
func Heading(text string) ContentBlock {
	return ContentBlock{Kind: BlockHeading, Text: text}
}

// Paragraph returns a paragraph block.
func Paragraph(text string) ContentBlock {
	return ContentBlock{Kind: BlockParagraph, Text: text}
}

// BulletItem returns a bullet list entry.
func BulletItem(text string) ContentBlock {
	return ContentBlock{Kind: BlockBulletItem, Text: text}
}

// Table returns a table block.
func Table(rows [][]string) ContentBlock {
	return ContentBlock{Kind: BlockTable, Rows: rows}
}

// PlainText returns the block's text. Tables are rendered one row per line
// with cells joined by CellSeparator.
func (b ContentBlock) PlainText() string {
	if b.Kind != BlockTable {
		return b.Text
	}
	rows := make([]string, len(b.Rows))
	for i, row := range b.Rows {
		rows[i] = strings.Join(row, CellSeparator)
	}
	return strings.Join(rows, "\n")
}
