package linearize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/relayout/core"
)

func para(text string, children ...core.LayoutBlock) *core.TextBlock {
	return &core.TextBlock{Text: text, Kind: core.TextKindParagraph, Children: children}
}

func heading(text string, children ...core.LayoutBlock) *core.TextBlock {
	return &core.TextBlock{Text: text, Kind: core.TextKindHeading, Children: children}
}

func table(rows ...[]string) *core.TableBlock {
	tb := &core.TableBlock{}
	for _, r := range rows {
		row := core.Row{}
		for _, c := range r {
			row.Cells = append(row.Cells, core.Cell{Blocks: []core.LayoutBlock{para(c)}})
		}
		tb.Rows = append(tb.Rows, row)
	}
	return tb
}

func texts(lines []core.AnnotatedLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return out
}

func TestLinearize(t *testing.T) {
	tests := []struct {
		name   string
		blocks []core.LayoutBlock
		want   []string
	}{
		{
			name:   "nil input",
			blocks: nil,
			want:   []string{},
		},
		{
			name:   "single heading is upper-cased",
			blocks: []core.LayoutBlock{heading("Dosage")},
			want:   []string{"DOSAGE"},
		},
		{
			name:   "heading uses full case mapping",
			blocks: []core.LayoutBlock{heading("Straße")},
			want:   []string{"STRASSE"},
		},
		{
			name: "heading between paragraphs is separated",
			blocks: []core.LayoutBlock{
				para("Intro."),
				heading("Dosage"),
				para("Take one tablet."),
			},
			want: []string{"Intro.", "", "DOSAGE", "", "Take one tablet."},
		},
		{
			name: "children follow their parent in order",
			blocks: []core.LayoutBlock{
				heading("Warnings", para("Do not exceed the dose."), para("Keep away from children.")),
				para("End."),
			},
			want: []string{"WARNINGS", "", "Do not exceed the dose.", "Keep away from children.", "End."},
		},
		{
			name:   "empty text without children is skipped",
			blocks: []core.LayoutBlock{para(""), para("   "), para("Kept.")},
			want:   []string{"Kept."},
		},
		{
			name:   "empty heading still emits its children",
			blocks: []core.LayoutBlock{heading("", para("Child."))},
			want:   []string{"Child."},
		},
		{
			name: "table rows flatten with trailing empties stripped",
			blocks: []core.LayoutBlock{
				para("Before."),
				table([]string{"A", "B", ""}, []string{"C", "", "D"}),
				para("After."),
			},
			want: []string{"Before.", "", "[TABLE]", "A | B", "C |  | D", "[/TABLE]", "", "After."},
		},
		{
			name:   "table without rows emits nothing",
			blocks: []core.LayoutBlock{para("Only."), &core.TableBlock{}},
			want:   []string{"Only."},
		},
		{
			name:   "table of empty rows emits nothing",
			blocks: []core.LayoutBlock{table([]string{"", ""}, []string{})},
			want:   []string{},
		},
		{
			name: "list entries get bullets and empty entries are skipped",
			blocks: []core.LayoutBlock{
				para("Side effects:"),
				&core.ListBlock{Entries: []core.ListEntry{{Text: "Nausea"}, {Text: " "}, {Text: "Headache"}}},
			},
			want: []string{"Side effects:", "", "• Nausea", "• Headache"},
		},
		{
			name:   "list with no text emits nothing",
			blocks: []core.LayoutBlock{&core.ListBlock{Entries: []core.ListEntry{{}}}},
			want:   []string{},
		},
		{
			name:   "unknown and nil blocks are skipped",
			blocks: []core.LayoutBlock{&core.UnknownBlock{Kind: "image_block"}, nil, (*core.TextBlock)(nil), para("Text.")},
			want:   []string{"Text."},
		},
		{
			name:   "broken sentence is rejoined",
			blocks: []core.LayoutBlock{para("Take one tablet"), para("with water,"), para("twice daily.")},
			want:   []string{"Take one tablet with water, twice daily."},
		},
		{
			name:   "multi-line text keeps interior blank",
			blocks: []core.LayoutBlock{para("First.\n\nSecond.")},
			want:   []string{"First.", "", "Second."},
		},
		{
			name:   "text is normalized",
			blocks: []core.LayoutBlock{para("Store~below  25^{\\circ}C.")},
			want:   []string{"Store below 25°C."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Linearize(tt.blocks)
			assert.Equal(t, tt.want, texts(lines))
		})
	}
}

func TestLinearize_Stats(t *testing.T) {
	l := New()
	_, stats := l.Linearize([]core.LayoutBlock{
		heading("Usage"),
		para("Shake well"),
		para("before use."),
		table([]string{"a", "b"}, []string{"", ""}),
		&core.ListBlock{Entries: []core.ListEntry{{Text: "one"}, {Text: "two"}}},
		&core.UnknownBlock{Kind: "figure"},
	})

	assert.Equal(t, 3, stats.TextBlocks)
	assert.Equal(t, 1, stats.Headings)
	assert.Equal(t, 1, stats.Tables)
	assert.Equal(t, 1, stats.TableRows)
	assert.Equal(t, 1, stats.SkippedRows)
	assert.Equal(t, 1, stats.Lists)
	assert.Equal(t, 2, stats.ListEntries)
	assert.Equal(t, 1, stats.UnknownBlocks)
	assert.Equal(t, 1, stats.MergedLines)
}

func TestLinearize_DeepNesting(t *testing.T) {
	const depth = 20000

	root := para("Level.")
	current := root
	for i := 1; i < depth; i++ {
		child := para("Level.")
		current.Children = []core.LayoutBlock{child}
		current = child
	}

	lines := Linearize([]core.LayoutBlock{root})
	require.Len(t, lines, depth)
	assert.Equal(t, "Level.", lines[depth-1].Text)
}

func TestLinearize_NoLeafDropped(t *testing.T) {
	blocks := []core.LayoutBlock{
		heading("Composition"),
		para("Each tablet contains:"),
		table([]string{"Paracetamol", "500 mg"}, []string{"Caffeine", "65 mg"}),
		heading("Dosage"),
		para("Adults: two tablets."),
		para("Children: not recommended."),
	}

	lines := Linearize(blocks)

	var text, rows int
	inTable := false
	for _, l := range lines {
		switch l.Kind {
		case core.LineTableStart:
			inTable = true
		case core.LineTableEnd:
			inTable = false
		case core.LineText:
			if inTable {
				rows++
			} else {
				text++
			}
		}
	}
	assert.Equal(t, 5, text)
	assert.Equal(t, 2, rows)
}

func TestFlattenRow(t *testing.T) {
	row := table([]string{"A", "B", ""}).Rows[0]
	got, ok := FlattenRow(row)
	require.True(t, ok)
	assert.Equal(t, "A | B", got)

	_, ok = FlattenRow(core.Row{})
	assert.False(t, ok)
}

func TestJoinCells(t *testing.T) {
	got, ok := JoinCells([]string{"C", "", "D"})
	require.True(t, ok)
	assert.Equal(t, "C |  | D", got)

	got, ok = JoinCells([]string{"", "x", "", ""})
	require.True(t, ok)
	assert.Equal(t, " | x", got)

	_, ok = JoinCells([]string{"", ""})
	assert.False(t, ok)
}

func TestCellText(t *testing.T) {
	cell := core.Cell{Blocks: []core.LayoutBlock{
		para("Tablets", para("film\ncoated")),
		&core.TableBlock{Rows: []core.Row{{Cells: []core.Cell{{Blocks: []core.LayoutBlock{para("inner")}}}}}},
		&core.ListBlock{Entries: []core.ListEntry{{Text: "x"}}},
		&core.UnknownBlock{},
	}}

	assert.Equal(t, "Tablets film coated inner x", CellText(cell))
}

func TestCompact(t *testing.T) {
	tests := []struct {
		name string
		in   []core.AnnotatedLine
		want []string
	}{
		{
			name: "four blanks collapse to two",
			in: []core.AnnotatedLine{
				core.TextLine("One."), core.BlankLine(), core.BlankLine(), core.BlankLine(), core.BlankLine(), core.TextLine("Two."),
			},
			want: []string{"One.", "", "", "Two."},
		},
		{
			name: "leading and trailing blanks trimmed",
			in:   []core.AnnotatedLine{core.BlankLine(), core.TextLine("x"), core.BlankLine()},
			want: []string{"x"},
		},
		{
			name: "no merge inside tables",
			in: []core.AnnotatedLine{
				core.TableStart(), core.TextLine("a | b"), core.BlankLine(), core.TextLine("c | d"), core.TableEnd(),
			},
			want: []string{"[TABLE]", "a | b", "c | d", "[/TABLE]"},
		},
		{
			name: "no merge after sentence end or before capital",
			in:   []core.AnnotatedLine{core.TextLine("Done."), core.TextLine("next"), core.TextLine("More")},
			want: []string{"Done.", "next", "More"},
		},
		{
			name: "digit and colon continue",
			in:   []core.AnnotatedLine{core.TextLine("dose 5"), core.TextLine("mg per day:"), core.TextLine("adults")},
			want: []string{"dose 5 mg per day: adults"},
		},
		{
			name: "no merge across blank",
			in:   []core.AnnotatedLine{core.TextLine("one"), core.BlankLine(), core.TextLine("two")},
			want: []string{"one", "", "two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, texts(Compact(tt.in)))
		})
	}
}

func TestCompact_Idempotent(t *testing.T) {
	lines := core.ParseLines(strings.Join([]string{
		"", "INDICATIONS", "", "", "", "relief of", "mild pain", "[TABLE]", "x | y", "[/TABLE]", "", "",
	}, "\n"))

	once := Compact(lines)
	assert.Equal(t, once, Compact(once))
}
