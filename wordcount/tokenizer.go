package wordcount

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/d-chen/lowtierbot/backend/telemetry"
)

// Word length bounds for recorded words, measured in runes.
const (
	MinWordLen = 3
	MaxWordLen = 16
)

var (
	commandRe = regexp.MustCompile(`!\w+\s`)
	urlRe     = regexp.MustCompile(`https?://\S*`)
	letterRe  = regexp.MustCompile(`\p{L}+`)
)

// Tokenizer turns raw chat text into countable words. Words are maximal runs
// of Unicode letters, lowercased, bounded by MinWordLen/MaxWordLen and
// filtered against the stop-word set.
type Tokenizer struct {
	Stop   StopWordSet
	MinLen int
	MaxLen int
}

func NewTokenizer(stop StopWordSet) *Tokenizer {
	return &Tokenizer{Stop: stop, MinLen: MinWordLen, MaxLen: MaxWordLen}
}

// Frequencies returns the per-word occurrence count for a single message.
// Embedded bot commands and URLs are stripped before splitting.
func (t *Tokenizer) Frequencies(message string) map[string]int {
	msg := strings.ToLower(message)
	msg = commandRe.ReplaceAllString(msg, " ")
	msg = urlRe.ReplaceAllString(msg, "")

	freq := make(map[string]int)
	for _, word := range letterRe.FindAllString(msg, -1) {
		n := utf8.RuneCountInString(word)
		if n < t.MinLen || n > t.MaxLen {
			telemetry.DiscardWord("length")
			continue
		}
		if strings.HasPrefix(word, "http") {
			telemetry.DiscardWord("url")
			continue
		}
		if t.Stop.Contains(word) {
			telemetry.DiscardWord("stopword")
			continue
		}
		freq[word]++
	}
	return freq
}
