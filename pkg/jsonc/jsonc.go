// Package jsonc reads the relaxed JSON dialect editors use for their settings
// files: line and block comments plus trailing commas.
package jsonc

import (
	"encoding/json"
	"strings"
)

// Strip removes // line comments and /* */ block comments that appear outside
// of string literals. String contents, including URLs such as "https://...",
// pass through untouched. Escaped quotes inside strings do not end the string.
//
// Malformed input degrades instead of failing: an unterminated string is
// copied through as-is and an unterminated block comment drops the remaining
// text.
func Strip(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	n := len(text)
	i := 0
	for i < n {
		c := text[i]
		switch {
		case c == '"':
			end := scanString(text, i)
			b.WriteString(text[i:end])
			i = end
		case c == '/' && i+1 < n && text[i+1] == '/':
			nl := strings.IndexByte(text[i:], '\n')
			if nl < 0 {
				return b.String()
			}
			// newline is kept so line numbers in later parse errors still line up
			i += nl
		case c == '/' && i+1 < n && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += 2 + end + 2
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String()
}

// StripTrailingCommas removes commas that directly precede a closing ] or }
// (ignoring whitespace), outside of string literals.
func StripTrailingCommas(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	n := len(text)
	i := 0
	for i < n {
		c := text[i]
		switch c {
		case '"':
			end := scanString(text, i)
			b.WriteString(text[i:end])
			i = end
		case ',':
			j := i + 1
			for j < n && isSpace(text[j]) {
				j++
			}
			if j < n && (text[j] == ']' || text[j] == '}') {
				i++
				continue
			}
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String()
}

// Unmarshal strips comments and trailing commas from data and decodes the
// result into v.
func Unmarshal(data []byte, v any) error {
	clean := StripTrailingCommas(Strip(string(data)))
	return json.Unmarshal([]byte(clean), v)
}

// scanString returns the index just past the string literal starting at
// start (which must point at the opening quote). Returns len(text) when the
// literal is unterminated.
func scanString(text string, start int) int {
	n := len(text)
	j := start + 1
	for j < n {
		switch text[j] {
		case '\\':
			j += 2
			continue
		case '"':
			return j + 1
		}
		j++
	}
	return n
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
