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


// Package reflow re-segments an annotated line stream into typed content blocks.
//
// The classifier is a two-state machine. Outside a table, lines are buffered
// into paragraph groups delimited by blank lines, and each group is
// classified as a heading, a bullet list, or a paragraph. Between table
// markers, lines are buffered as rows and emitted as one table block.
package reflow

import (
	"log/slog"
	"strings"

	"github.com/poiesic/relayout/core"
)

// Stats counts what the classifier produced.
type Stats struct {
	Headings           int
	Paragraphs         int
	BulletItems        int
	Tables             int
	TableRows          int
	UnterminatedTables int // Tables closed by end of stream
	StrayTableEnds     int // TABLE_END markers seen outside a table
}

// count tallies block by kind.
func (s *Stats) count(block core.ContentBlock) {
	switch block.Kind {
	case core.BlockHeading:
		s.Headings++
	case core.BlockParagraph:
		s.Paragraphs++
	case core.BlockBulletItem:
		s.BulletItems++
	case core.BlockTable:
		s.Tables++
		s.TableRows += len(block.Rows)
	}
}

// Classifier turns annotated lines into content blocks.
// It holds no per-document state and is safe for concurrent use.
type Classifier struct {
	logger *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// New creates a Classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "reflow")
	return c
}

var defaultClassifier = New()

// Classify classifies lines with a default Classifier.
func Classify(lines []core.AnnotatedLine) []core.ContentBlock {
	blocks, _ := defaultClassifier.Classify(lines)
	return blocks
}

// ClassifyText parses the textual form of an annotated stream and classifies it.
func ClassifyText(text string) []core.ContentBlock {
	return Classify(core.ParseLines(text))
}

// Classify consumes lines in order and returns the content blocks they
// describe, in the same order. It never fails: a table left open at the end
// of the stream is emitted with the rows buffered so far.
func (c *Classifier) Classify(lines []core.AnnotatedLine) ([]core.ContentBlock, Stats) {
	s := &state{}

	for _, line := range lines {
		switch line.Kind {
		case core.LineTableStart:
			if s.inTable {
				// A second start without an end closes the open table first.
				s.flushTable()
			}
			s.flushGroup()
			s.inTable = true
		case core.LineTableEnd:
			if !s.inTable {
				s.stats.StrayTableEnds++
				continue
			}
			s.flushTable()
		case core.LineBlank:
			if !s.inTable {
				s.flushGroup()
			}
		default:
			if s.inTable {
				s.rows = append(s.rows, line.Text)
				continue
			}
			if text := strings.TrimSpace(line.Text); text != "" {
				s.group = append(s.group, text)
			} else {
				s.flushGroup()
			}
		}
	}

	s.flushGroup()
	if s.inTable {
		s.stats.UnterminatedTables++
		s.flushTable()
	}

	if s.stats.UnterminatedTables > 0 || s.stats.StrayTableEnds > 0 {
		c.logger.Warn("unbalanced table markers",
			"unterminated", s.stats.UnterminatedTables,
			"stray_ends", s.stats.StrayTableEnds)
	}
	c.logger.Debug("classified annotated stream",
		"blocks", len(s.blocks),
		"headings", s.stats.Headings,
		"paragraphs", s.stats.Paragraphs,
		"bullets", s.stats.BulletItems,
		"tables", s.stats.Tables)

	return s.blocks, s.stats
}

type state struct {
	inTable bool
	group   []string
	rows    []string
	blocks  []core.ContentBlock
	stats   Stats
}

func (s *state) emit(block core.ContentBlock) {
	s.blocks = append(s.blocks, block)
	s.stats.count(block)
}

func (s *state) flushGroup() {
	if len(s.group) == 0 {
		return
	}
	for _, block := range ClassifyGroup(s.group) {
		s.emit(block)
	}
	s.group = s.group[:0]
}

func (s *state) flushTable() {
	s.inTable = false
	if len(s.rows) == 0 {
		return
	}
	rows := make([][]string, 0, len(s.rows))
	for _, line := range s.rows {
		if row := SplitRow(line); row != nil {
			rows = append(rows, row)
		}
	}
	s.rows = s.rows[:0]
	if len(rows) > 0 {
		s.emit(core.Table(rows))
	}
}

// ClassifyGroup classifies one paragraph group, a run of non-blank lines
// between separators.
//
// A lone line with a heading shape that is not a bullet becomes a heading.
// A group where enough lines carry a bullet prefix becomes bullet items, with
// the other lines kept as paragraphs in place. Anything else is joined into a
// single paragraph.
func ClassifyGroup(group []string) []core.ContentBlock {
	lines := make([]string, 0, len(group))
	for _, l := range group {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	if len(lines) == 1 && LooksLikeHeading(lines[0]) && !IsBulletLine(lines[0]) {
		return []core.ContentBlock{core.Heading(lines[0])}
	}

	bullets := 0
	for _, l := range lines {
		if IsBulletLine(l) {
			bullets++
		}
	}
	if isList(bullets, len(lines)) {
		blocks := make([]core.ContentBlock, 0, len(lines))
		for _, l := range lines {
			if IsBulletLine(l) {
				blocks = append(blocks, core.BulletItem(StripBullet(l)))
			} else {
				blocks = append(blocks, core.Paragraph(l))
			}
		}
		return blocks
	}

	return []core.ContentBlock{core.Paragraph(strings.Join(lines, " "))}
}

// SplitRow splits a flattened table row back into cells. It returns nil for
// a row with no content.
func SplitRow(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	cells := strings.Split(line, core.CellSeparator)
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}
