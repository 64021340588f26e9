// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	MessagesIngested prometheus.Counter
	WordsRecorded    prometheus.Counter
	WordsDiscarded   *prometheus.CounterVec // reason: spam|stopword|length|url|command
	QueriesAnswered  prometheus.Counter
	QueriesDropped   prometheus.Counter
	FlushesFailed    prometheus.Counter

	// Histograms (seconds)
	FlushDuration prometheus.Observer

	// Gauges
	PendingWritesGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesIngested = promauto.NewCounter(prometheus.CounterOpts{Name: "wordcount_messages_ingested_total", Help: "Chat messages fed through the ingest pipeline"})
		WordsRecorded = promauto.NewCounter(prometheus.CounterOpts{Name: "wordcount_words_recorded_total", Help: "Word occurrences written to the ledger"})
		WordsDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{Name: "wordcount_words_discarded_total", Help: "Word occurrences discarded by filter policy"}, []string{"reason"})
		QueriesAnswered = promauto.NewCounter(prometheus.CounterOpts{Name: "wordcount_queries_answered_total", Help: "Query replies sent (including usage and rejections)"})
		QueriesDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "wordcount_queries_dropped_total", Help: "Query requests dropped by the cooldown gate"})
		FlushesFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "wordcount_ledger_flushes_failed_total", Help: "Ledger flush transactions that failed"})
		FlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "wordcount_ledger_flush_duration_seconds", Help: "Ledger flush duration seconds", Buckets: prometheus.DefBuckets})
		PendingWritesGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "wordcount_ledger_pending_writes", Help: "Buffered (user, word) increments awaiting flush"})
	})
}

// SetPendingWrites records the current ledger buffer size.
func SetPendingWrites(n int) {
	if PendingWritesGauge != nil {
		PendingWritesGauge.Set(float64(n))
	}
}

// DiscardWord increments the discard counter for a filter reason.
func DiscardWord(reason string) {
	if WordsDiscarded != nil {
		WordsDiscarded.WithLabelValues(reason).Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with a corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
