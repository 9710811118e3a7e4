// Package text holds small string helpers shared by the services.
package text

import "unicode/utf8"

// Truncate shortens s to at most limit runes and appends suffix when it cut anything.
// The cut always lands on a rune boundary.
func Truncate(s string, limit int, suffix string) string {
	if limit < 0 {
		limit = 0
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + suffix
		}
		n++
	}
	return s
}
