package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestInitIdempotent(t *testing.T) {
	Init()
	first := MessagesIngested
	Init()
	if MessagesIngested != first {
		t.Fatalf("Init() re-registered metrics")
	}
	if WordsDiscarded == nil || QueriesAnswered == nil {
		t.Fatalf("metrics not registered")
	}
	// Must not panic with an unseen label value.
	DiscardWord("spam")
	SetPendingWrites(3)
}

func TestTimeFunc(t *testing.T) {
	Init()
	d := TimeFunc(FlushDuration, func() { time.Sleep(5 * time.Millisecond) })
	if d < 5*time.Millisecond {
		t.Fatalf("TimeFunc duration too small: %v", d)
	}
	// nil observer is allowed
	if d := TimeFunc(nil, func() {}); d < 0 {
		t.Fatalf("negative duration")
	}
}

func TestCorrelation(t *testing.T) {
	ctx := context.Background()
	if GetCorrelation(ctx) != "" {
		t.Fatalf("expected empty correlation id")
	}
	ctx = WithCorrelation(ctx, "abc-123")
	if got := GetCorrelation(ctx); got != "abc-123" {
		t.Fatalf("GetCorrelation = %q", got)
	}
	if LoggerWithCorr(ctx) == nil {
		t.Fatalf("LoggerWithCorr returned nil")
	}
}
