package wordcount

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/d-chen/lowtierbot/backend/telemetry"
)

// Result set limits per query mode.
const (
	userTopLimit   = 8
	wordTopLimit   = 8
	globalTopLimit = 10
)

const usageReply = "Usage: !words user [USERNAME] / !words word [WORD] / !words everyone"

// Sayer delivers a reply line to a chat channel.
type Sayer interface {
	Say(channel, message string)
}

// Engine answers !words queries against the ledger, gated by a single
// shared cooldown.
type Engine struct {
	ledger *Ledger
	stop   StopWordSet
	gate   *Cooldown
	say    Sayer
}

func NewEngine(ledger *Ledger, stop StopWordSet, gate *Cooldown, say Sayer) *Engine {
	return &Engine{ledger: ledger, stop: stop, gate: gate, say: say}
}

// Handle routes one query. args are the whitespace fields after the !words
// command word. While the cooldown is closed every request is dropped
// silently; any answered request, including usage and validation replies,
// closes it again.
func (e *Engine) Handle(ctx context.Context, caller, channel string, args []string) {
	if !e.gate.Ready() {
		if telemetry.QueriesDropped != nil {
			telemetry.QueriesDropped.Inc()
		}
		return
	}

	switch {
	case len(args) >= 1 && strings.EqualFold(args[0], "everyone"):
		e.globalTop(ctx, caller, channel)
	case len(args) >= 2 && strings.EqualFold(args[0], "user"):
		e.userTop(ctx, caller, channel, args[1])
	case len(args) >= 2 && strings.EqualFold(args[0], "word"):
		e.wordTop(ctx, caller, channel, args[1])
	default:
		e.reply(channel, caller, usageReply)
	}
}

func (e *Engine) userTop(ctx context.Context, caller, channel, target string) {
	target = strings.ToLower(target)
	counts, err := e.ledger.CountsForUser(ctx, target, userTopLimit)
	if err != nil {
		slog.Error("user top query failed", "user", target, "error", err)
		return
	}
	if len(counts) == 0 {
		e.gate.Touch()
		return
	}
	e.reply(channel, caller, "This user's top words: "+formatWordCounts(counts))
}

func (e *Engine) wordTop(ctx context.Context, caller, channel, word string) {
	word = strings.ToLower(word)
	n := utf8.RuneCountInString(word)
	switch {
	case n < MinWordLen || n > MaxWordLen:
		e.reply(channel, caller, fmt.Sprintf("Words of length %d to %d are recorded.", MinWordLen, MaxWordLen))
		return
	case e.stop.Contains(word) || strings.HasPrefix(word, "!"):
		e.reply(channel, caller, fmt.Sprintf("'%s' is excluded for being too common or another command.", word))
		return
	case !isAlpha(word):
		e.reply(channel, caller, "Numbers and punctuation are not included in records.")
		return
	}

	counts, err := e.ledger.CountsForWord(ctx, word, wordTopLimit)
	if err != nil {
		slog.Error("word top query failed", "word", word, "error", err)
		return
	}
	e.reply(channel, caller, fmt.Sprintf("Top users of '%s': %s", word, formatUserCounts(counts)))
}

func (e *Engine) globalTop(ctx context.Context, caller, channel string) {
	counts, err := e.ledger.GlobalTop(ctx, globalTopLimit)
	if err != nil {
		slog.Error("global top query failed", "error", err)
		return
	}
	e.reply(channel, caller, "Top words recorded: "+formatWordCounts(counts))
}

func (e *Engine) reply(channel, caller, message string) {
	e.say.Say(channel, fmt.Sprintf("%s -> %s", caller, message))
	e.gate.Touch()
	if telemetry.QueriesAnswered != nil {
		telemetry.QueriesAnswered.Inc()
	}
}

func isAlpha(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return word != ""
}
