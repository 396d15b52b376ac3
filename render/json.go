package render

import (
	"encoding/json"
	"io"

	"github.com/poiesic/relayout/core"
)

// JSONRenderer writes the hand-off format consumed by external layout tools:
//
//	{"title": "...", "blocks": [{"kind": "heading", "text": "..."}, {"kind": "table", "rows": [[...]]}]}
type JSONRenderer struct {
	Indent bool
}

// JSONDocument is the top-level object written by JSONRenderer.
type JSONDocument struct {
	Title  string      `json:"title"`
	Blocks []JSONBlock `json:"blocks"`
}

// JSONBlock is one content block in the hand-off format.
type JSONBlock struct {
	Kind string     `json:"kind"`
	Text string     `json:"text,omitempty"`
	Rows [][]string `json:"rows,omitempty"`
}

func (j *JSONRenderer) Extension() string { return ".json" }

func (j *JSONRenderer) Render(w io.Writer, title string, blocks []core.ContentBlock) error {
	doc := JSONDocument{Title: title, Blocks: make([]JSONBlock, len(blocks))}
	for i, block := range blocks {
		doc.Blocks[i] = JSONBlock{Kind: block.Kind.String(), Text: block.Text, Rows: block.Rows}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if j.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}

// DecodeJSON reads a document written by JSONRenderer back into content blocks.
func DecodeJSON(r io.Reader) (string, []core.ContentBlock, error) {
	var doc JSONDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return "", nil, err
	}
	blocks := make([]core.ContentBlock, len(doc.Blocks))
	for i, b := range doc.Blocks {
		kind, err := core.ParseBlockKind(b.Kind)
		if err != nil {
			return "", nil, err
		}
		blocks[i] = core.ContentBlock{Kind: kind, Text: b.Text, Rows: b.Rows}
	}
	return doc.Title, blocks, nil
}
