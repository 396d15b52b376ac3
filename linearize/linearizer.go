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


package linearize

import (
	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/poiesic/relayout/core"
)

// BulletPrefix is prepended to every list entry.
const BulletPrefix = "• "

// Stats counts what the linearizer saw while walking a tree.
type Stats struct {
	TextBlocks    int // Text blocks with non-empty text
	Headings      int
	Tables        int // Tables that produced at least one row
	TableRows     int // Rows emitted
	SkippedRows   int // Rows dropped because every cell was empty
	Lists         int
	ListEntries   int
	UnknownBlocks int
	MergedLines   int // Line-wrap repairs made by the post-pass
}

// Linearizer turns a layout tree into an annotated line stream.
// A Linearizer holds no per-document state and is safe for concurrent use.
type Linearizer struct {
	logger *slog.Logger
}

// Option configures a Linearizer.
type Option func(*Linearizer)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Linearizer) {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
	}
}

// New creates a Linearizer.
func New(opts ...Option) *Linearizer {
	l := &Linearizer{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "linearizer")
	return l
}

var defaultLinearizer = New()

// Linearize walks blocks with a default Linearizer and returns the compacted stream.
func Linearize(blocks []core.LayoutBlock) []core.AnnotatedLine {
	lines, _ := defaultLinearizer.Linearize(blocks)
	return lines
}

// Linearize walks blocks depth-first and returns the compacted annotated
// stream along with counters. Malformed or empty input yields fewer lines,
// never an error.
func (l *Linearizer) Linearize(blocks []core.LayoutBlock) ([]core.AnnotatedLine, Stats) {
	w := &walker{}

	// Explicit stack: nesting depth is bounded by memory only.
	stack := make([]core.LayoutBlock, 0, len(blocks))
	stack = pushReversed(stack, blocks)
	for len(stack) > 0 {
		block := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch b := block.(type) {
		case *core.TextBlock:
			if b == nil {
				continue
			}
			w.text(b)
			stack = pushReversed(stack, b.Children)
		case *core.TableBlock:
			if b == nil {
				continue
			}
			w.table(b)
		case *core.ListBlock:
			if b == nil {
				continue
			}
			w.list(b)
		case nil:
			continue
		default:
			w.stats.UnknownBlocks++
		}
	}

	lines, merged := compact(w.lines)
	w.stats.MergedLines = merged

	if w.stats.UnknownBlocks > 0 {
		l.logger.Info("skipped unknown layout blocks", "count", w.stats.UnknownBlocks)
	}
	l.logger.Debug("linearized layout tree",
		"lines", len(lines),
		"headings", w.stats.Headings,
		"tables", w.stats.Tables,
		"lists", w.stats.Lists)

	return lines, w.stats
}

func pushReversed(stack, blocks []core.LayoutBlock) []core.LayoutBlock {
	for i := len(blocks) - 1; i >= 0; i-- {
		stack = append(stack, blocks[i])
	}
	return stack
}

type walker struct {
	lines []core.AnnotatedLine
	stats Stats
}

func (w *walker) emit(line core.AnnotatedLine) {
	w.lines = append(w.lines, line)
}

// separate emits a blank line unless the stream is empty or already ends in one.
func (w *walker) separate() {
	if len(w.lines) == 0 || w.lines[len(w.lines)-1].IsBlank() {
		return
	}
	w.emit(core.BlankLine())
}

func (w *walker) text(b *core.TextBlock) {
	lines := Lines(b.Text)
	if len(lines) == 0 {
		return
	}
	w.stats.TextBlocks++

	if b.Kind == core.TextKindHeading {
		w.stats.Headings++
		w.separate()
		w.emitLines(lines, upper)
		w.emit(core.BlankLine())
		return
	}
	w.emitLines(lines, nil)
}

// upper applies full Unicode case mapping, so "ß" becomes "SS". A Caser
// keeps state, so one is made per call.
func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

func (w *walker) emitLines(lines []string, transform func(string) string) {
	for _, line := range lines {
		if line == "" {
			w.separate()
			continue
		}
		if transform != nil {
			line = transform(line)
		}
		w.emit(core.TextLine(line))
	}
}

func (w *walker) table(b *core.TableBlock) {
	rows := make([]string, 0, len(b.Rows))
	for _, row := range b.Rows {
		flat, ok := FlattenRow(row)
		if !ok {
			w.stats.SkippedRows++
			continue
		}
		rows = append(rows, flat)
	}
	if len(rows) == 0 {
		return
	}

	w.stats.Tables++
	w.stats.TableRows += len(rows)
	w.separate()
	w.emit(core.TableStart())
	for _, row := range rows {
		w.emit(core.TextLine(row))
	}
	w.emit(core.TableEnd())
	w.emit(core.BlankLine())
}

func (w *walker) list(b *core.ListBlock) {
	entries := make([]string, 0, len(b.Entries))
	for _, entry := range b.Entries {
		if text := Flatten(entry.Text); text != "" {
			entries = append(entries, text)
		}
	}
	if len(entries) == 0 {
		return
	}

	w.stats.Lists++
	w.stats.ListEntries += len(entries)
	w.separate()
	for _, entry := range entries {
		w.emit(core.TextLine(BulletPrefix + entry))
	}
	w.emit(core.BlankLine())
}
