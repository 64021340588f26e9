package wordcount

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/d-chen/lowtierbot/backend/telemetry"
)

// WordCount is one word with its accumulated count.
type WordCount struct {
	Word  string
	Count int64
}

// UserCount is one user with their accumulated count for some word.
type UserCount struct {
	User  string
	Count int64
}

type pairKey struct {
	user string
	word string
}

// Ledger is the persistent word store. Increments are buffered in memory and
// written to the database in batches; reads flush pending increments first so
// every query observes all ingested messages.
type Ledger struct {
	db *sql.DB

	mu      sync.Mutex
	pending map[pairKey]int64
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db, pending: make(map[pairKey]int64)}
}

// Add buffers an increment of n for the (user, word) pair.
func (l *Ledger) Add(user, word string, n int64) {
	if n <= 0 {
		return
	}
	l.mu.Lock()
	l.pending[pairKey{user: user, word: word}] += n
	size := len(l.pending)
	l.mu.Unlock()
	telemetry.SetPendingWrites(size)
}

// Pending reports the number of buffered (user, word) pairs.
func (l *Ledger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Flush writes all buffered increments to the database in one transaction.
// On failure the increments are merged back into the buffer so they are not
// lost; the next flush retries them.
func (l *Ledger) Flush(ctx context.Context) error {
	l.mu.Lock()
	batch := l.pending
	l.pending = make(map[pairKey]int64)
	l.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	start := time.Now()
	if err := l.writeBatch(ctx, batch); err != nil {
		l.mu.Lock()
		for k, n := range batch {
			l.pending[k] += n
		}
		size := len(l.pending)
		l.mu.Unlock()
		telemetry.SetPendingWrites(size)
		if telemetry.FlushesFailed != nil {
			telemetry.FlushesFailed.Inc()
		}
		return err
	}
	if telemetry.FlushDuration != nil {
		telemetry.FlushDuration.Observe(time.Since(start).Seconds())
	}
	telemetry.SetPendingWrites(l.Pending())
	return nil
}

func (l *Ledger) writeBatch(ctx context.Context, batch map[pairKey]int64) error {
	keys := make([]pairKey, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].user != keys[j].user {
			return keys[i].user < keys[j].user
		}
		return keys[i].word < keys[j].word
	})

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin flush tx: %w", err)
	}
	defer tx.Rollback()

	global := make(map[string]int64, len(batch))
	for _, k := range keys {
		n := batch[k]
		_, err := tx.ExecContext(ctx, `
            INSERT INTO word_counts (username, word, count) VALUES ($1, $2, $3)
            ON CONFLICT (username, word) DO UPDATE SET count = word_counts.count + excluded.count
        `, k.user, k.word, n)
		if err != nil {
			return fmt.Errorf("upsert word count %s/%s: %w", k.user, k.word, err)
		}
		global[k.word] += n
	}

	words := make([]string, 0, len(global))
	for w := range global {
		words = append(words, w)
	}
	sort.Strings(words)
	for _, w := range words {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO global_word_counts (word, count) VALUES ($1, $2)
            ON CONFLICT (word) DO UPDATE SET count = global_word_counts.count + excluded.count
        `, w, global[w])
		if err != nil {
			return fmt.Errorf("upsert global count %s: %w", w, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit flush tx: %w", err)
	}
	return nil
}

// StartFlusher runs a background loop flushing the buffer every interval
// until ctx is cancelled, then performs one final flush so shutdown does not
// drop buffered counts.
func (l *Ledger) StartFlusher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				final, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := l.Flush(final); err != nil {
					slog.Error("final ledger flush failed", "error", err)
				}
				cancel()
				return
			case <-ticker.C:
				if err := l.Flush(ctx); err != nil {
					slog.Error("ledger flush failed", "error", err)
				}
			}
		}
	}()
}

// CountsForUser returns the user's most frequent words, highest count first,
// ties broken alphabetically.
func (l *Ledger) CountsForUser(ctx context.Context, user string, limit int) ([]WordCount, error) {
	if err := l.Flush(ctx); err != nil {
		return nil, err
	}
	rows, err := l.db.QueryContext(ctx, `
        SELECT word, count FROM word_counts
        WHERE username = $1
        ORDER BY count DESC, word ASC
        LIMIT $2
    `, user, limit)
	if err != nil {
		return nil, fmt.Errorf("query user counts: %w", err)
	}
	defer rows.Close()

	var out []WordCount
	for rows.Next() {
		var wc WordCount
		if err := rows.Scan(&wc.Word, &wc.Count); err != nil {
			return nil, fmt.Errorf("scan user count: %w", err)
		}
		out = append(out, wc)
	}
	return out, rows.Err()
}

// CountsForWord returns the users who said word most often, highest count
// first, ties broken alphabetically by username.
func (l *Ledger) CountsForWord(ctx context.Context, word string, limit int) ([]UserCount, error) {
	if err := l.Flush(ctx); err != nil {
		return nil, err
	}
	rows, err := l.db.QueryContext(ctx, `
        SELECT username, count FROM word_counts
        WHERE word = $1
        ORDER BY count DESC, username ASC
        LIMIT $2
    `, word, limit)
	if err != nil {
		return nil, fmt.Errorf("query word counts: %w", err)
	}
	defer rows.Close()

	var out []UserCount
	for rows.Next() {
		var uc UserCount
		if err := rows.Scan(&uc.User, &uc.Count); err != nil {
			return nil, fmt.Errorf("scan word count: %w", err)
		}
		out = append(out, uc)
	}
	return out, rows.Err()
}

// GlobalTop returns the most frequent words across all users.
func (l *Ledger) GlobalTop(ctx context.Context, limit int) ([]WordCount, error) {
	if err := l.Flush(ctx); err != nil {
		return nil, err
	}
	rows, err := l.db.QueryContext(ctx, `
        SELECT word, count FROM global_word_counts
        ORDER BY count DESC, word ASC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query global counts: %w", err)
	}
	defer rows.Close()

	var out []WordCount
	for rows.Next() {
		var wc WordCount
		if err := rows.Scan(&wc.Word, &wc.Count); err != nil {
			return nil, fmt.Errorf("scan global count: %w", err)
		}
		out = append(out, wc)
	}
	return out, rows.Err()
}

// DeleteUser removes all records for a user and subtracts their counts from
// the global aggregate. Aggregate rows that drop to zero are removed.
func (l *Ledger) DeleteUser(ctx context.Context, user string) error {
	if err := l.Flush(ctx); err != nil {
		return err
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT word, count FROM word_counts WHERE username = $1`, user)
	if err != nil {
		return fmt.Errorf("query user rows: %w", err)
	}
	var counts []WordCount
	for rows.Next() {
		var wc WordCount
		if err := rows.Scan(&wc.Word, &wc.Count); err != nil {
			rows.Close()
			return fmt.Errorf("scan user row: %w", err)
		}
		counts = append(counts, wc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, wc := range counts {
		if _, err := tx.ExecContext(ctx, `UPDATE global_word_counts SET count = count - $1 WHERE word = $2`, wc.Count, wc.Word); err != nil {
			return fmt.Errorf("decrement global count: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM word_counts WHERE username = $1`, user); err != nil {
		return fmt.Errorf("delete user rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM global_word_counts WHERE count <= 0`); err != nil {
		return fmt.Errorf("prune global rows: %w", err)
	}
	return tx.Commit()
}

// DeleteEntry removes one (user, word) record and subtracts its count from
// the global aggregate. Missing entries are a no-op.
func (l *Ledger) DeleteEntry(ctx context.Context, user, word string) error {
	if err := l.Flush(ctx); err != nil {
		return err
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	var count int64
	err = tx.QueryRowContext(ctx, `SELECT count FROM word_counts WHERE username = $1 AND word = $2`, user, word).Scan(&count)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE global_word_counts SET count = count - $1 WHERE word = $2`, count, word); err != nil {
		return fmt.Errorf("decrement global count: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM word_counts WHERE username = $1 AND word = $2`, user, word); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM global_word_counts WHERE word = $1 AND count <= 0`, word); err != nil {
		return fmt.Errorf("prune global row: %w", err)
	}
	return tx.Commit()
}
