package wordcount

import (
	"strings"

	"github.com/d-chen/lowtierbot/backend/telemetry"
)

// Message is a single chat line handed to the ingest pipeline.
type Message struct {
	User    string
	Channel string
	Text    string
}

// spamRepeatLimit is the maximum number of times a word may appear in one
// message and still be recorded. Anything above it is treated as spam and
// the word is dropped for that message entirely.
const spamRepeatLimit = 2

// Pipeline feeds chat messages into the ledger. Commands, ignored users and
// spammy repeats are filtered out; everything else becomes buffered counts.
type Pipeline struct {
	ledger  *Ledger
	tok     *Tokenizer
	ignored func(user string) bool
}

func NewPipeline(ledger *Ledger, tok *Tokenizer, ignored func(string) bool) *Pipeline {
	return &Pipeline{ledger: ledger, tok: tok, ignored: ignored}
}

// Handle processes one message. It never fails; malformed or filtered
// messages are silently dropped.
func (p *Pipeline) Handle(msg Message) {
	user := strings.ToLower(strings.TrimSpace(msg.User))
	if user == "" || msg.Text == "" {
		return
	}
	if strings.HasPrefix(msg.Text, "!") {
		telemetry.DiscardWord("command")
		return
	}
	if p.ignored != nil && p.ignored(user) {
		return
	}
	if telemetry.MessagesIngested != nil {
		telemetry.MessagesIngested.Inc()
	}

	for word, n := range p.tok.Frequencies(msg.Text) {
		if n > spamRepeatLimit {
			telemetry.DiscardWord("spam")
			continue
		}
		p.ledger.Add(user, word, int64(n))
		if telemetry.WordsRecorded != nil {
			telemetry.WordsRecorded.Add(float64(n))
		}
	}
}
