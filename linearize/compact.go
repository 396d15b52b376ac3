package linearize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/relayout/core"
)

// MaxBlankRun is the longest run of blank lines kept by Compact.
const MaxBlankRun = 2

// Compact is the post-pass applied to a raw annotated stream:
//   - a text line ending mid-sentence followed by a text line starting in
//     lower case is joined to it with a single space (chained)
//   - runs of more than MaxBlankRun blank lines are shortened to MaxBlankRun
//   - leading and trailing blank lines are removed
//
// Lines between table markers are never merged and blank lines inside a
// table are dropped.
func Compact(lines []core.AnnotatedLine) []core.AnnotatedLine {
	out, _ := compact(lines)
	return out
}

func compact(lines []core.AnnotatedLine) ([]core.AnnotatedLine, int) {
	out := make([]core.AnnotatedLine, 0, len(lines))
	inTable := false
	blanks := 0
	merged := 0

	for _, line := range lines {
		switch line.Kind {
		case core.LineTableStart:
			inTable = true
		case core.LineTableEnd:
			inTable = false
		case core.LineBlank:
			if inTable || len(out) == 0 {
				continue
			}
			blanks++
			if blanks > MaxBlankRun {
				continue
			}
			out = append(out, line)
			continue
		case core.LineText:
			if !inTable && len(out) > 0 {
				last := &out[len(out)-1]
				if last.Kind == core.LineText && continues(last.Text, line.Text) {
					last.Text = last.Text + " " + strings.TrimLeft(line.Text, " ")
					merged++
					continue
				}
			}
		}
		blanks = 0
		out = append(out, line)
	}

	for len(out) > 0 && out[len(out)-1].IsBlank() {
		out = out[:len(out)-1]
	}
	return out, merged
}

// continues reports whether next looks like the rest of a sentence that
// was broken after prev.
func continues(prev, next string) bool {
	last, _ := utf8.DecodeLastRuneInString(prev)
	first, _ := utf8.DecodeRuneInString(next)
	if last == utf8.RuneError || first == utf8.RuneError {
		return false
	}
	endsOpen := unicode.IsLower(last) || unicode.IsDigit(last) || strings.ContainsRune(",;:", last)
	return endsOpen && unicode.IsLower(first)
}
