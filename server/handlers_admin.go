package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// HandleAdminDeleteUser removes all word records for a user and rebalances
// the global aggregate. DELETE /admin/wordcount/user?username=NAME
func (h *Handlers) HandleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	username := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("username")))
	if username == "" {
		http.Error(w, "missing username", http.StatusBadRequest)
		return
	}
	if err := h.ledger.DeleteUser(r.Context(), username); err != nil {
		slog.Error("admin delete user failed", slog.String("username", username), slog.Any("err", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("deleted word records", slog.String("username", username))
	writeJSON(w, map[string]string{"status": "ok", "deleted": username})
}

// HandleAdminDeleteEntry removes a single (user, word) record.
// DELETE /admin/wordcount/entry?username=NAME&word=WORD
func (h *Handlers) HandleAdminDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	username := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("username")))
	word := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("word")))
	if username == "" || word == "" {
		http.Error(w, "missing username/word", http.StatusBadRequest)
		return
	}
	if err := h.ledger.DeleteEntry(r.Context(), username, word); err != nil {
		slog.Error("admin delete entry failed", slog.String("username", username), slog.String("word", word), slog.Any("err", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("deleted word record", slog.String("username", username), slog.String("word", word))
	writeJSON(w, map[string]string{"status": "ok", "deleted": username + "/" + word})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode JSON response", slog.Any("err", err))
	}
}
