package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"

	"github.com/poiesic/relayout/core"
)

// TerminalRenderer styles the markdown form of a document for a terminal.
type TerminalRenderer struct {
	// Style is a glamour standard style name ("dark", "light", "notty", ...).
	// Empty selects a style from the terminal background.
	Style string
	// WordWrap is the wrap width in columns. Zero disables wrapping.
	WordWrap int
}

// NewTerminalRenderer returns a TerminalRenderer with an automatic style and
// an 80 column wrap.
func NewTerminalRenderer() *TerminalRenderer {
	return &TerminalRenderer{WordWrap: 80}
}

func (t *TerminalRenderer) Extension() string { return ".ans" }

func (t *TerminalRenderer) Render(w io.Writer, title string, blocks []core.ContentBlock) error {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(t.WordWrap)}
	if t.Style != "" {
		opts = append(opts, glamour.WithStandardStyle(t.Style))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}

	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return fmt.Errorf("failed to create terminal renderer: %w", err)
	}

	out, err := tr.Render((&MarkdownRenderer{}).markdown(title, blocks))
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
