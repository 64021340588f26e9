package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HandleStatus reports ledger size and ingest state for dashboards.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var entries, users, globalWords, seenUsers int64
	row := h.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT username) FROM word_counts`)
	if err := row.Scan(&entries, &users); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM global_word_counts`).Scan(&globalWords); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seen`).Scan(&seenUsers); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]any{
		"channel":        h.cfg.TwitchChannel,
		"entries":        entries,
		"users":          users,
		"global_words":   globalWords,
		"seen_users":     seenUsers,
		"pending_writes": h.ledger.Pending(),
	})
	if err != nil {
		slog.Warn("failed to encode JSON response", slog.Any("err", err))
	}
}
