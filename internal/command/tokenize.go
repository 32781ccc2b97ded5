// Package command turns a shell-like parameter string into the argument vector
// handed to the external HTTP client. Nothing here ever goes through a shell.
package command

import (
	"strings"
	"unicode"
)

// Tokenize splits raw on whitespace outside of quotes. No-break spaces
// (U+00A0, U+2007, U+202F) and NEL (U+0085) are not separators and stay inside
// their token.
//
// Single and double quotes open a span that only the same character closes; the
// quote characters stay in the token and whitespace inside the span is kept. An
// unterminated span closes at end of input. Empty input yields nil.
func Tokenize(raw string) []string {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range raw {
		switch {
		case quote == 0 && (r == '\'' || r == '"'):
			quote = r
			current.WriteRune(r)
		case quote != 0 && r == quote:
			quote = 0
			current.WriteRune(r)
		case quote == 0 && isSeparator(r):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}

// isSeparator reports ASCII whitespace (U+001C to U+001F included) plus the
// Unicode Z categories minus the no-break spaces.
func isSeparator(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', 0x1C, 0x1D, 0x1E, 0x1F:
		return true
	case 0x00A0, 0x2007, 0x202F:
		return false
	}
	return r > unicode.MaxASCII && unicode.In(r, unicode.Zs, unicode.Zl, unicode.Zp)
}
