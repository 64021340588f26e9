// Package server exposes the HTTP API: health, status, metrics, the Twitch
// OAuth flow and the admin word-count maintenance endpoints.
package server

import (
	"database/sql"
	"sync"
	"time"

	"github.com/d-chen/lowtierbot/backend/config"
	"github.com/d-chen/lowtierbot/backend/wordcount"
)

// Maximum number of OAuth states to keep in memory.
const maxOAuthStates = 10000

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db     *sql.DB
	cfg    *config.Config
	ledger *wordcount.Ledger

	stateMu    sync.RWMutex
	stateStore map[string]time.Time
}

// NewHandlers creates a Handlers instance with the given dependencies.
func NewHandlers(db *sql.DB, cfg *config.Config, ledger *wordcount.Ledger) *Handlers {
	return &Handlers{
		db:         db,
		cfg:        cfg,
		ledger:     ledger,
		stateStore: make(map[string]time.Time),
	}
}

// cleanExpiredStates removes expired OAuth states. Callers hold stateMu.
func (h *Handlers) cleanExpiredStates() {
	now := time.Now()
	for state, expiry := range h.stateStore {
		if now.After(expiry) {
			delete(h.stateStore, state)
		}
	}
}

// addOAuthState stores a new OAuth state, pruning expired ones as it grows.
func (h *Handlers) addOAuthState(state string, expiry time.Time) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	if len(h.stateStore)%100 == 0 {
		h.cleanExpiredStates()
	}
	// Refuse new states over the cap rather than let the map grow without bound.
	if len(h.stateStore) >= maxOAuthStates {
		return
	}
	h.stateStore[state] = expiry
}

func (h *Handlers) takeOAuthState(state string) bool {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	exp, ok := h.stateStore[state]
	if !ok || time.Now().After(exp) {
		return false
	}
	delete(h.stateStore, state)
	return true
}
