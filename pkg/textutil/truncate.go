// Package textutil holds small text helpers for rendering card payloads on
// a terminal.
package textutil

import (
	"strings"
)

// DefaultSummaryMaxLen is the width summaries are cut to in wide listings.
const DefaultSummaryMaxLen = 48

// minTruncateLen leaves room for one rune plus the ellipsis.
const minTruncateLen = 4

// Truncate collapses all whitespace runs in s into single spaces and cuts
// the result to maxLen runes, ending it with "..." when it was cut.
// A maxLen below 4 is treated as 4.
func Truncate(s string, maxLen int) string {
	if maxLen < minTruncateLen {
		maxLen = minTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// SingleLine collapses whitespace runs without cutting.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
