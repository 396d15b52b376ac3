package linearize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const softHyphen = "\u00ad"

var (
	horizontalSpace = regexp.MustCompile(`[ \t\x{00A0}]+`)

	// Degree sign as emitted by the layout service's math transcription.
	degreeReplacer = strings.NewReplacer(`^{\circ}`, "°", `\circ`, "°")
)

// Normalize cleans a single line of OCR text.
//
// The result is NFC composed, has soft hyphens removed, LaTeX-style degree
// sequences replaced by °, tildes replaced by spaces, runs of horizontal
// whitespace collapsed to one space, and is trimmed. Normalize is idempotent.
// Newlines are left alone; use Lines to split multi-line text.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, softHyphen, "")
	s = degreeReplacer.Replace(s)
	s = strings.ReplaceAll(s, "~", " ")
	s = horizontalSpace.ReplaceAllString(s, " ")
	// Composition runs last: removing a soft hyphen can bring a base
	// character next to a combining mark.
	s = norm.NFC.String(s)
	return strings.TrimSpace(s)
}

// Lines splits s on line breaks and normalizes each line.
// Leading and trailing empty lines are dropped; interior empty lines are
// kept as "" so the caller can turn them into separators.
func Lines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	raw := strings.Split(s, "\n")
	lines := make([]string, 0, len(raw))
	for _, r := range raw {
		lines = append(lines, Normalize(r))
	}

	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	return lines[start:end]
}

// Flatten normalizes s as a single line, turning any line breaks into spaces.
func Flatten(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(s)
	return Normalize(s)
}
