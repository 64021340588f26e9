package wordcount

import (
	"context"
	"testing"
)

func newTestPipeline(t *testing.T, ignored func(string) bool) (*Pipeline, *Ledger) {
	t.Helper()
	l := newTestLedger(t)
	return NewPipeline(l, NewTokenizer(NewStopWordSet("the")), ignored), l
}

func userCount(t *testing.T, l *Ledger, user, word string) int64 {
	t.Helper()
	counts, err := l.CountsForUser(context.Background(), user, 100)
	if err != nil {
		t.Fatal(err)
	}
	for _, wc := range counts {
		if wc.Word == word {
			return wc.Count
		}
	}
	return 0
}

func TestPipelineRecordsWords(t *testing.T) {
	p, l := newTestPipeline(t, nil)
	p.Handle(Message{User: "Alice", Channel: "#c", Text: "hello hello world"})

	if got := userCount(t, l, "alice", "hello"); got != 2 {
		t.Errorf("hello count = %d, want 2", got)
	}
	if got := userCount(t, l, "alice", "world"); got != 1 {
		t.Errorf("world count = %d, want 1", got)
	}
}

func TestPipelineSpamDiscard(t *testing.T) {
	p, l := newTestPipeline(t, nil)
	p.Handle(Message{User: "spammer", Channel: "#c", Text: "kappa kappa kappa normal"})

	if got := userCount(t, l, "spammer", "kappa"); got != 0 {
		t.Errorf("spammed word should be discarded, count = %d", got)
	}
	if got := userCount(t, l, "spammer", "normal"); got != 1 {
		t.Errorf("non-spammed word should be kept, count = %d", got)
	}
}

func TestPipelineSkipsCommands(t *testing.T) {
	p, l := newTestPipeline(t, nil)
	p.Handle(Message{User: "alice", Channel: "#c", Text: "!words everyone please"})
	if l.Pending() != 0 {
		t.Error("command message should not be recorded")
	}
}

func TestPipelineSkipsIgnoredUsers(t *testing.T) {
	p, l := newTestPipeline(t, func(u string) bool { return u == "botuser" })
	p.Handle(Message{User: "BotUser", Channel: "#c", Text: "ignore these words"})
	if l.Pending() != 0 {
		t.Error("ignored user message should not be recorded")
	}
}

func TestPipelineSkipsMalformed(t *testing.T) {
	p, l := newTestPipeline(t, nil)
	p.Handle(Message{User: "", Channel: "#c", Text: "orphan words"})
	p.Handle(Message{User: "alice", Channel: "#c", Text: ""})
	if l.Pending() != 0 {
		t.Error("malformed messages should be dropped")
	}
}

func TestPipelineStopWords(t *testing.T) {
	p, l := newTestPipeline(t, nil)
	p.Handle(Message{User: "alice", Channel: "#c", Text: "the walls"})
	if got := userCount(t, l, "alice", "the"); got != 0 {
		t.Error("stop word should not be recorded")
	}
	if got := userCount(t, l, "alice", "walls"); got != 1 {
		t.Error("regular word should be recorded")
	}
}
