package validators

import (
	"strings"
	"unicode"
)

// SanitizeString drops control characters, collapses whitespace runs to a
// single space and trims. maxLen counts runes; zero disables the limit.
func SanitizeString(input string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(input))

	n := 0
	pendingSpace := false
	for _, r := range input {
		if unicode.IsSpace(r) {
			pendingSpace = n > 0
			continue
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			continue
		}
		if pendingSpace {
			if maxLen > 0 && n+1 >= maxLen {
				break
			}
			b.WriteByte(' ')
			n++
			pendingSpace = false
		}
		if maxLen > 0 && n >= maxLen {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
