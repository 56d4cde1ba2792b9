package helpers

import (
	"strings"
	"unicode/utf8"
)

// FirstSegment returns the part of target before the first separator,
// trimmed of surrounding whitespace.
func FirstSegment(target string, separator string) string {
	parts := strings.SplitN(target, separator, 2)
	return strings.TrimSpace(parts[0])
}

// Window returns the substring of text around [start, end), widened by radius
// bytes on both sides and clamped to the text bounds. The edges are widened
// further to the nearest rune boundary so multi-byte runes are never split.
func Window(text string, start, end, radius int) string {
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}

	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}

	return text[lo:hi]
}
