package prompt

import "strings"

// Normalize collapses every whitespace run, newlines included, to a single
// space and trims the ends. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
