package wordcount

import (
	"fmt"
	"strings"
)

// zeroWidthSpace is spliced into displayed usernames so replies do not ping
// the people they mention.
const zeroWidthSpace = "\uFEFF"

// BreakName inserts zero-width characters after the first and before the
// last rune of a username, defeating mention highlighting in chat clients.
func BreakName(name string) string {
	runes := []rune(name)
	if len(runes) < 2 {
		return name
	}
	first := string(runes[0])
	last := string(runes[len(runes)-1])
	middle := string(runes[1 : len(runes)-1])
	return first + zeroWidthSpace + middle + zeroWidthSpace + last
}

func formatWordCounts(counts []WordCount) string {
	parts := make([]string, 0, len(counts))
	for _, wc := range counts {
		parts = append(parts, fmt.Sprintf("%s (%d)", wc.Word, wc.Count))
	}
	return strings.Join(parts, ", ")
}

func formatUserCounts(counts []UserCount) string {
	parts := make([]string, 0, len(counts))
	for _, uc := range counts {
		parts = append(parts, fmt.Sprintf("%s (%d)", BreakName(uc.User), uc.Count))
	}
	return strings.Join(parts, ", ")
}
