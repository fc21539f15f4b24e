// Package metrics computes line statistics and structural metrics for Python
// source files.
package metrics

import (
	"bytes"
	"unicode/utf8"
)

// LineStats holds raw line counts. CodeOnly is LOC - Blank - Comment.
type LineStats struct {
	LOC      int
	Blank    int
	Comment  int
	CodeOnly int
}

// CountLines computes line statistics from raw text. It does not need a
// successful parse. Lines end where Python's str.splitlines breaks them: at
// "\r\n" or at any of "\n", "\r", "\v", "\f", "\x1c"-"\x1e", U+0085,
// U+2028 and U+2029. A final terminator does not start another line. A line
// is blank when it is empty after trimming whitespace and a comment when the
// trimmed text starts with '#'.
func CountLines(text []byte) LineStats {
	var s LineStats
	for len(text) > 0 {
		var line []byte
		if end, width := lineBreak(text); end < 0 {
			line, text = text, nil
		} else {
			line, text = text[:end], text[end+width:]
		}

		s.LOC++
		trimmed := bytes.TrimSpace(line)
		switch {
		case len(trimmed) == 0:
			s.Blank++
		case trimmed[0] == '#':
			s.Comment++
		}
	}
	s.CodeOnly = s.LOC - s.Blank - s.Comment
	return s
}

// lineBreak returns the offset and byte width of the first line terminator
// in text, or -1 when there is none.
func lineBreak(text []byte) (int, int) {
	for i := 0; i < len(text); {
		r, size := rune(text[i]), 1
		if r >= utf8.RuneSelf {
			r, size = utf8.DecodeRune(text[i:])
		}
		switch r {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				return i, 2
			}
			return i, 1
		case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
			return i, size
		}
		i += size
	}
	return -1, 0
}
