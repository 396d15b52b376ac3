package reflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/relayout/core"
	"github.com/poiesic/relayout/linearize"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []core.ContentBlock
	}{
		{
			name: "empty stream",
			text: "",
			want: nil,
		},
		{
			name: "heading",
			text: "DOSAGE",
			want: []core.ContentBlock{core.Heading("DOSAGE")},
		},
		{
			name: "numbered section heading",
			text: "4.2 Posology and method of administration",
			want: []core.ContentBlock{core.Heading("4.2 Posology and method of administration")},
		},
		{
			name: "colon heading",
			text: "Side effects:",
			want: []core.ContentBlock{core.Heading("Side effects:")},
		},
		{
			name: "multi-line group joins into one paragraph",
			text: "Paracetamol is used to treat\nmild to moderate pain.",
			want: []core.ContentBlock{core.Paragraph("Paracetamol is used to treat mild to moderate pain.")},
		},
		{
			name: "long sentence with period is not a heading",
			text: "Take with food.",
			want: []core.ContentBlock{core.Paragraph("Take with food.")},
		},
		{
			name: "short all-caps sentence with period stays heading",
			text: "WARNING.",
			want: []core.ContentBlock{core.Heading("WARNING.")},
		},
		{
			name: "two of three bullet lines",
			text: "- Nausea\n- Headache\nRarely reported",
			want: []core.ContentBlock{
				core.BulletItem("Nausea"),
				core.BulletItem("Headache"),
				core.Paragraph("Rarely reported"),
			},
		},
		{
			name: "numbered list",
			text: "1. Wash hands\n2) Apply cream\n• Repeat",
			want: []core.ContentBlock{
				core.BulletItem("Wash hands"),
				core.BulletItem("Apply cream"),
				core.BulletItem("Repeat"),
			},
		},
		{
			name: "too few bullets is a paragraph",
			text: "- Nausea\nHeadache\nDizziness",
			want: []core.ContentBlock{core.Paragraph("- Nausea Headache Dizziness")},
		},
		{
			name: "two of four bullet lines is below sixty percent",
			text: "- a\n- b\nc\nd",
			want: []core.ContentBlock{core.Paragraph("- a - b c d")},
		},
		{
			name: "three of four bullet lines",
			text: "- a\n- b\n- c\nd",
			want: []core.ContentBlock{
				core.BulletItem("a"),
				core.BulletItem("b"),
				core.BulletItem("c"),
				core.Paragraph("d"),
			},
		},
		{
			name: "single bullet line is not a heading",
			text: "- NOTE:",
			want: []core.ContentBlock{core.Paragraph("- NOTE:")},
		},
		{
			name: "table round trip",
			text: "Before\n\n[TABLE]\nA | B\nC |  | D\n[/TABLE]\n\nAfter",
			want: []core.ContentBlock{
				core.Paragraph("Before"),
				core.Table([][]string{{"A", "B"}, {"C", "", "D"}}),
				core.Paragraph("After"),
			},
		},
		{
			name: "table start flushes text group",
			text: "Composition\n[TABLE]\nx | y\n[/TABLE]",
			want: []core.ContentBlock{
				core.Paragraph("Composition"),
				core.Table([][]string{{"x", "y"}}),
			},
		},
		{
			name: "unterminated table is kept",
			text: "[TABLE]\nrow one | 1\nrow two | 2",
			want: []core.ContentBlock{
				core.Table([][]string{{"row one", "1"}, {"row two", "2"}}),
			},
		},
		{
			name: "empty table emits nothing",
			text: "[TABLE]\n[/TABLE]\nDone",
			want: []core.ContentBlock{core.Paragraph("Done")},
		},
		{
			name: "stray table end is ignored",
			text: "[/TABLE]\nDone",
			want: []core.ContentBlock{core.Paragraph("Done")},
		},
		{
			name: "blank lines inside table are ignored",
			text: "[TABLE]\na | b\n\nc | d\n[/TABLE]",
			want: []core.ContentBlock{core.Table([][]string{{"a", "b"}, {"c", "d"}})},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyText(tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsList(t *testing.T) {
	tests := []struct {
		bullets, n int
		want       bool
	}{
		{1, 1, false},
		{2, 2, true},
		{2, 3, true},
		{2, 4, false},
		{3, 4, true},
		{3, 5, true},
		{3, 6, false},
		{4, 6, true},
		{4, 7, false},
		{5, 7, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isList(tt.bullets, tt.n), "%d of %d", tt.bullets, tt.n)
	}
}

func TestClassify_HeadingLengthBoundary(t *testing.T) {
	line90 := strings.Repeat("A", MaxHeadingLength)
	line91 := strings.Repeat("A", MaxHeadingLength+1)

	assert.Equal(t, []core.ContentBlock{core.Heading(line90)}, ClassifyText(line90))
	assert.Equal(t, []core.ContentBlock{core.Paragraph(line91)}, ClassifyText(line91))
}

func TestClassify_HeadingLengthCountsRunes(t *testing.T) {
	line := strings.Repeat("É", MaxHeadingLength-1) + ":"
	require.Equal(t, MaxHeadingLength, len([]rune(line)))

	assert.Equal(t, core.BlockHeading, ClassifyText(line)[0].Kind)
}

func TestClassify_Stats(t *testing.T) {
	c := New()
	_, stats := c.Classify(core.ParseLines("USAGE\n\n- a\n- b\n\n[TABLE]\n1 | 2\n3 | 4\n[/TABLE]\n[/TABLE]\nText\n[TABLE]\n5"))

	assert.Equal(t, 1, stats.Headings)
	assert.Equal(t, 2, stats.BulletItems)
	assert.Equal(t, 1, stats.Paragraphs)
	assert.Equal(t, 2, stats.Tables)
	assert.Equal(t, 3, stats.TableRows)
	assert.Equal(t, 1, stats.UnterminatedTables)
	assert.Equal(t, 1, stats.StrayTableEnds)
}

func TestClassify_NestedTableStart(t *testing.T) {
	got := ClassifyText("[TABLE]\na | b\n[TABLE]\nc | d\n[/TABLE]")

	assert.Equal(t, []core.ContentBlock{
		core.Table([][]string{{"a", "b"}}),
		core.Table([][]string{{"c", "d"}}),
	}, got)
}

func TestClassify_FromLayoutTree(t *testing.T) {
	blocks := []core.LayoutBlock{
		&core.TextBlock{Text: "Dosage", Kind: core.TextKindHeading},
		&core.TextBlock{Text: "Adults take one tablet", Kind: core.TextKindParagraph},
		&core.TextBlock{Text: "every six hours.", Kind: core.TextKindParagraph},
		&core.ListBlock{Entries: []core.ListEntry{{Text: "Do not exceed 4 g"}, {Text: "Avoid alcohol"}}},
		&core.TableBlock{Rows: []core.Row{
			{Cells: []core.Cell{
				{Blocks: []core.LayoutBlock{&core.TextBlock{Text: "Age"}}},
				{Blocks: []core.LayoutBlock{&core.TextBlock{Text: "Dose"}}},
			}},
			{Cells: []core.Cell{
				{Blocks: []core.LayoutBlock{&core.TextBlock{Text: "6-12"}}},
				{Blocks: []core.LayoutBlock{&core.TextBlock{Text: "250 mg"}}},
			}},
		}},
	}

	got := Classify(linearize.Linearize(blocks))

	assert.Equal(t, []core.ContentBlock{
		core.Heading("DOSAGE"),
		core.Paragraph("Adults take one tablet every six hours."),
		core.BulletItem("Do not exceed 4 g"),
		core.BulletItem("Avoid alcohol"),
		core.Table([][]string{{"Age", "Dose"}, {"6-12", "250 mg"}}),
	}, got)
}

func TestClassify_UnicodeHeadingFromLayoutTree(t *testing.T) {
	got := Classify(linearize.Linearize([]core.LayoutBlock{
		&core.TextBlock{Text: "Straße", Kind: core.TextKindHeading},
	}))
	assert.Equal(t, []core.ContentBlock{core.Heading("STRASSE")}, got)
}

func TestClassifyText_MarkerLikeTextLine(t *testing.T) {
	lines := []core.AnnotatedLine{
		core.TextLine("See the table below"),
		core.TextLine("[TABLE]"),
		core.BlankLine(),
		core.TextLine("After"),
	}

	want := Classify(lines)
	assert.Equal(t, want, ClassifyText(core.FormatLines(lines)))
	for _, b := range want {
		assert.NotEqual(t, core.BlockTable, b.Kind)
	}
}

func TestClassify_CollapsedBlanksBeforeClassification(t *testing.T) {
	lines := []core.AnnotatedLine{
		core.TextLine("First"),
		core.BlankLine(), core.BlankLine(), core.BlankLine(), core.BlankLine(),
		core.TextLine("second"),
	}

	compacted := linearize.Compact(lines)
	blanks := 0
	for _, l := range compacted {
		if l.IsBlank() {
			blanks++
		}
	}
	assert.Equal(t, 2, blanks)
	assert.Equal(t, []core.ContentBlock{core.Paragraph("First"), core.Paragraph("second")}, Classify(compacted))
}

func TestLooksLikeHeading(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"INDICATIONS", true},
		{"ABC", false},
		{"  STORAGE CONDITIONS  ", true},
		{"1 Introduction", true},
		{"2.3.1 Overdose", true},
		{"Contraindications:", true},
		{"This product should be stored in a cool place.", false},
		{"Mixed Case Title", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeHeading(tt.line))
		})
	}
}

func TestBullets(t *testing.T) {
	assert.True(t, IsBulletLine("- item"))
	assert.True(t, IsBulletLine("* item"))
	assert.True(t, IsBulletLine("• item"))
	assert.True(t, IsBulletLine("12) item"))
	assert.False(t, IsBulletLine("-item"))
	assert.False(t, IsBulletLine("1.5 mg"))

	assert.Equal(t, "item", StripBullet("  3.  item "))
	assert.Equal(t, "plain", StripBullet("plain"))
}

func TestSplitRow(t *testing.T) {
	assert.Equal(t, []string{"", "x"}, SplitRow(" | x"))
	assert.Equal(t, []string{"only"}, SplitRow("only"))
	assert.Nil(t, SplitRow("  "))
}
