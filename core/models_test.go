package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	assert.Equal(t, IDFromContent("test content"), IDFromContent("test content"))
	assert.Equal(t, IDFromContent(""), IDFromContent(""))
	assert.NotEqual(t, IDFromContent("content1"), IDFromContent("content2"))
}

func TestDocumentID(t *testing.T) {
	layout := []byte(`{"blocks":[]}`)

	assert.Equal(t, DocumentID(CategoryPharma, layout), DocumentID(CategoryPharma, layout))
	assert.NotEqual(t, DocumentID(CategoryPharma, layout), DocumentID(CategoryHerbal, layout))
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{in: "pharma", want: CategoryPharma},
		{in: "Herbal", want: CategoryHerbal},
		{in: "  PHARMA ", want: CategoryPharma},
		{in: "", wantErr: true},
		{in: "vet", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategory_DirName(t *testing.T) {
	assert.Equal(t, "Pharma", CategoryPharma.DirName())
	assert.Equal(t, "Herbal", CategoryHerbal.DirName())
	assert.Equal(t, "", Category("").DirName())
}

func TestBlockKind_RoundTrip(t *testing.T) {
	for _, kind := range []BlockKind{BlockHeading, BlockParagraph, BlockBulletItem, BlockTable} {
		got, err := ParseBlockKind(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}

	_, err := ParseBlockKind("figure")
	assert.ErrorIs(t, err, ErrInvalidBlockKind)
	assert.Equal(t, "unknown", BlockKind(0).String())
}

func TestContentBlock_PlainText(t *testing.T) {
	assert.Equal(t, "Indications", Heading("Indications").PlainText())

	table := Table([][]string{{"Dose", "Age"}, {"5 ml", "2-6"}})
	assert.Equal(t, "Dose | Age\n5 ml | 2-6", table.PlainText())
}

func TestAnnotatedLine_String(t *testing.T) {
	assert.Equal(t, "[TABLE]", TableStart().String())
	assert.Equal(t, "[/TABLE]", TableEnd().String())
	assert.Equal(t, "", BlankLine().String())
	assert.Equal(t, "hello", TextLine("hello").String())
	assert.True(t, BlankLine().IsBlank())
	assert.False(t, TextLine("").IsBlank())
}

func TestFormatParseLines(t *testing.T) {
	lines := []AnnotatedLine{
		TextLine("DOSAGE"),
		BlankLine(),
		TableStart(),
		TextLine("a | b"),
		TableEnd(),
	}

	text := FormatLines(lines)
	assert.Equal(t, "DOSAGE\n\n[TABLE]\na | b\n[/TABLE]", text)
	assert.Equal(t, lines, ParseLines(text))
	assert.Nil(t, ParseLines(""))
}

func TestFormatParseLines_MarkerLikeText(t *testing.T) {
	lines := []AnnotatedLine{
		TextLine("[TABLE]"),
		TextLine("  [/TABLE]"),
		TextLine(`\n is a newline`),
		TextLine(""),
		BlankLine(),
		TableStart(),
		TextLine("a | b"),
		TableEnd(),
	}

	text := FormatLines(lines)
	assert.Equal(t, "\\[TABLE]\n\\  [/TABLE]\n\\\\n is a newline\n\\\n\n[TABLE]\na | b\n[/TABLE]", text)
	assert.Equal(t, lines, ParseLines(text))
}

func TestParseLines_CRLF(t *testing.T) {
	got := ParseLines("one\r\n  [TABLE]  \r\ntwo  ")
	assert.Equal(t, []AnnotatedLine{TextLine("one"), TableStart(), TextLine("two")}, got)
}
