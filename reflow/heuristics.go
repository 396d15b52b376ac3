package reflow

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxHeadingLength is the longest line, in characters, that can be a heading.
	MaxHeadingLength = 90

	// maxWordsWithPeriod is the most words a heading ending in "." may have.
	maxWordsWithPeriod = 3

	// A group becomes a list when at least minBullets lines, and at least
	// bulletPercent of all lines, carry a bullet prefix.
	minBullets    = 2
	bulletPercent = 60
)

var (
	headingPattern = regexp.MustCompile(`^\s*(?:[A-Z][A-Z0-9 \-/&(),.%]{3,}|\d+(?:\.\d+)*\s+\S.+|.+:\s*)\s*$`)
	bulletPattern  = regexp.MustCompile(`^\s*(?:[-•*]|\d+[.)])\s+`)
)

// LooksLikeHeading reports whether a single line has the shape of a heading:
// an upper-case run, a numbered section title, or text ending in a colon.
// Lines longer than MaxHeadingLength, and sentences of more than three words
// ending in a period, never qualify.
func LooksLikeHeading(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" {
		return false
	}
	if utf8.RuneCountInString(s) > MaxHeadingLength {
		return false
	}
	if strings.HasSuffix(s, ".") && len(strings.Fields(s)) > maxWordsWithPeriod {
		return false
	}
	return headingPattern.MatchString(s)
}

// IsBulletLine reports whether line starts with a bullet glyph or an
// enumeration such as "1." or "2)".
func IsBulletLine(line string) bool {
	return bulletPattern.MatchString(line)
}

// StripBullet removes the bullet prefix from line, if any, and trims it.
func StripBullet(line string) string {
	return strings.TrimSpace(bulletPattern.ReplaceAllString(line, ""))
}

// isList applies the bullet ratio rule to a group of n lines.
func isList(bullets, n int) bool {
	return bullets >= minBullets && bullets*100 >= bulletPercent*n
}
