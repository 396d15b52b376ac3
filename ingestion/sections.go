package ingestion

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/relayout/core"
)

// DefaultMaxChunkRunes bounds the size of a chunk produced by Sections.
const DefaultMaxChunkRunes = 1500

// Sections splits content blocks into chunks for embedding. Each heading
// starts a new section and is carried on every chunk cut from it. Sections
// longer than maxRunes are split between blocks, and single blocks longer
// than maxRunes are split between words. A heading with no body becomes a
// chunk of its own text.
func Sections(blocks []core.ContentBlock, maxRunes int) []*core.Chunk {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxChunkRunes
	}

	s := &sectioner{maxRunes: maxRunes}
	for _, block := range blocks {
		if block.Kind == core.BlockHeading {
			s.closeSection()
			s.heading = block.Text
			continue
		}
		for _, piece := range splitRunes(block.PlainText(), maxRunes) {
			s.add(piece)
		}
	}
	s.closeSection()
	return s.chunks
}

type sectioner struct {
	maxRunes int
	heading  string
	body     []string
	size     int
	emitted  bool
	chunks   []*core.Chunk
}

func (s *sectioner) add(text string) {
	n := utf8.RuneCountInString(text)
	if len(s.body) > 0 && s.size+1+n > s.maxRunes {
		s.flush()
	}
	if len(s.body) > 0 {
		s.size++
	}
	s.body = append(s.body, text)
	s.size += n
}

func (s *sectioner) flush() {
	if len(s.body) == 0 {
		return
	}
	s.chunks = append(s.chunks, &core.Chunk{
		Index:   len(s.chunks),
		Heading: s.heading,
		Text:    strings.Join(s.body, "\n"),
	})
	s.body = s.body[:0]
	s.size = 0
	s.emitted = true
}

func (s *sectioner) closeSection() {
	if len(s.body) == 0 && !s.emitted && s.heading != "" {
		s.body = append(s.body, s.heading)
	}
	s.flush()
	s.heading = ""
	s.emitted = false
}

// splitRunes cuts text into pieces of at most maxRunes runes, preferring
// word boundaries.
func splitRunes(text string, maxRunes int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxRunes {
		return []string{text}
	}

	var pieces []string
	var current []rune
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > maxRunes {
			if len(current) > 0 {
				pieces = append(pieces, string(current))
				current = current[:0]
			}
			pieces = append(pieces, string(w[:maxRunes]))
			w = w[maxRunes:]
		}
		if len(current) > 0 && len(current)+1+len(w) > maxRunes {
			pieces = append(pieces, string(current))
			current = current[:0]
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, w...)
	}
	if len(current) > 0 {
		pieces = append(pieces, string(current))
	}
	return pieces
}
