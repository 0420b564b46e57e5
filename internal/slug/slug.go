// Package slug derives URL path segments from display names.
package slug

import "strings"

// Make lowercases text, turns each space into a hyphen, and drops
// every character that is not an ASCII letter, digit, or hyphen.
// The result is deterministic and idempotent; adjacent spaces keep
// their count as adjacent hyphens. Make can return "" for input with
// no usable characters, which callers must reject.
func Make(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}
