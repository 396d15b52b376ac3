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


package ingestion

import (
	"log/slog"
	"unicode/utf8"

	"github.com/poiesic/relayout/core"
	"github.com/poiesic/relayout/layout"
	"github.com/poiesic/relayout/linearize"
	"github.com/poiesic/relayout/reflow"
)

// NoTextPlaceholder is the single paragraph a document gets when nothing
// could be extracted from its layout.
const NoTextPlaceholder = "(no text detected)"

// Rendition is the result of transforming one layout tree.
type Rendition struct {
	Lines       []core.AnnotatedLine
	Blocks      []core.ContentBlock
	LinearStats linearize.Stats
	ReflowStats reflow.Stats
}

// Text returns the annotated line stream in its textual form.
func (r *Rendition) Text() string {
	return core.FormatLines(r.Lines)
}

// Empty reports whether the layout produced no lines at all.
func (r *Rendition) Empty() bool {
	return len(r.Lines) == 0
}

// Transformer runs the linearize and reflow stages with shared logging.
type Transformer struct {
	linearizer *linearize.Linearizer
	classifier *reflow.Classifier
}

// NewTransformer creates a Transformer. A nil logger selects slog.Default().
func NewTransformer(logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{
		linearizer: linearize.New(linearize.WithLogger(logger)),
		classifier: reflow.New(reflow.WithLogger(logger)),
	}
}

// Transform linearizes blocks and classifies the resulting stream.
func (t *Transformer) Transform(blocks []core.LayoutBlock) *Rendition {
	lines, linearStats := t.linearizer.Linearize(blocks)
	content, reflowStats := t.classifier.Classify(lines)
	if len(content) == 0 {
		content = []core.ContentBlock{core.Paragraph(NoTextPlaceholder)}
	}
	return &Rendition{
		Lines:       lines,
		Blocks:      content,
		LinearStats: linearStats,
		ReflowStats: reflowStats,
	}
}

// Apply decodes doc.Layout and replaces the document's derived fields
// (annotated text, blocks, stats and extracted metadata) with fresh ones.
// Metadata keys that ExtractMetadata does not own are kept.
func (t *Transformer) Apply(doc *core.Document) error {
	decoded, err := layout.Decode(doc.Layout)
	if err != nil {
		return err
	}

	rendition := t.Transform(decoded.Blocks)
	text := rendition.Text()

	doc.Annotated = text
	doc.Blocks = rendition.Blocks
	doc.Stats = core.DocumentStats{
		Pages:         decoded.PageCount,
		LayoutBlocks:  len(decoded.Blocks),
		UnknownBlocks: rendition.LinearStats.UnknownBlocks,
		TextLength:    utf8.RuneCountInString(text),
		Lines:         len(rendition.Lines),
		Headings:      rendition.ReflowStats.Headings,
		Paragraphs:    rendition.ReflowStats.Paragraphs,
		BulletItems:   rendition.ReflowStats.BulletItems,
		Tables:        rendition.ReflowStats.Tables,
	}

	if doc.Metadata == nil {
		doc.Metadata = make(map[string]string)
	}
	delete(doc.Metadata, MetaUsage)
	for k, v := range ExtractMetadata(doc.Name, text) {
		doc.Metadata[k] = v
	}
	return nil
}

// Transform is Transformer.Transform with the default logger.
func Transform(blocks []core.LayoutBlock) *Rendition {
	return NewTransformer(nil).Transform(blocks)
}
