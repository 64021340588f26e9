// Package seen tracks the most recent chat line per user so the bot can
// answer !seen lookups.
package seen

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const stampFormat = "Jan 02, 2006 at 15:04 MST"

// Recorder persists the latest sighting of each user.
type Recorder struct {
	db  *sql.DB
	now func() time.Time
}

func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db, now: time.Now}
}

// Record stores the user's latest message with a human-readable timestamp,
// replacing any previous sighting.
func (r *Recorder) Record(ctx context.Context, user, message string) error {
	user = strings.ToLower(strings.TrimSpace(user))
	if user == "" {
		return nil
	}
	stamp := r.now().UTC().Format(stampFormat)
	text := fmt.Sprintf("This user was last seen saying '%s' on %s", message, stamp)
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO seen (username, message, seen_at) VALUES ($1, $2, $3)
        ON CONFLICT (username) DO UPDATE SET message = excluded.message, seen_at = excluded.seen_at
    `, user, text, r.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record sighting: %w", err)
	}
	return nil
}

// Lookup returns the stored sighting line for a user. The second return is
// false when the user has never been seen.
func (r *Recorder) Lookup(ctx context.Context, user string) (string, bool, error) {
	user = strings.ToLower(strings.TrimSpace(user))
	var text string
	err := r.db.QueryRowContext(ctx, `SELECT message FROM seen WHERE username = $1`, user).Scan(&text)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup sighting: %w", err)
	}
	return text, true, nil
}
