package core

// TextKind classifies a text block as reported by the layout service.
type TextKind int

const (
	// TextKindUnspecified is used when the layout service gives no block type.
	TextKindUnspecified TextKind = iota
	// TextKindParagraph is body text.
	TextKindParagraph
	// TextKindHeading is any heading level.
	TextKindHeading
)

func (k TextKind) String() string {
	switch k {
	case TextKindParagraph:
		return "paragraph"
	case TextKindHeading:
		return "heading"
	default:
		return "unspecified"
	}
}

// LayoutBlock is a node of the layout tree produced by the OCR service.
//
// The concrete types are *TextBlock, *TableBlock, *ListBlock and *UnknownBlock.
// Nil slices anywhere in the tree are valid and mean "no content".
type LayoutBlock interface {
	layoutBlock()
}

// TextBlock holds a run of text and any nested blocks beneath it.
type TextBlock struct {
	Text     string
	Kind     TextKind
	Children []LayoutBlock
}

// TableBlock holds table rows in reading order. Header rows, when the
// layout service reports them, come first.
type TableBlock struct {
	Rows []Row
}

// Row is a single table row.
type Row struct {
	Cells []Cell
}

// Cell holds the blocks laid out inside a table cell.
type Cell struct {
	Blocks []LayoutBlock
}

// ListBlock holds list entries in order.
type ListBlock struct {
	Entries []ListEntry
}

// ListEntry is a single list item.
type ListEntry struct {
	Text string
}

// UnknownBlock stands in for a block shape this package does not understand.
// Kind carries whatever name the layout service used for it.
type UnknownBlock struct {
	Kind string
}

func (*TextBlock) layoutBlock()    {}
func (*TableBlock) layoutBlock()   {}
func (*ListBlock) layoutBlock()    {}
func (*UnknownBlock) layoutBlock() {}
