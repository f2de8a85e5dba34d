// Package strutil provides string helpers shared by the engine packages.
package strutil

import "strings"

// Truncate cuts s down to at most maxLen runes, appending an ellipsis when
// anything was removed. Rune-level slicing keeps multi-byte characters
// intact. A non-positive maxLen yields the empty string.
func Truncate(s string, maxLen int) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Flatten collapses all whitespace runs, newlines included, into single
// spaces and trims the ends, yielding a one-line string.
func Flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
