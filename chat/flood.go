package chat

import (
	"sync"
	"time"
)

// Per-command rate limits for the lightweight commands. The !words engine
// carries its own shared cooldown, so it bypasses this gate.
const (
	floodGlobalDelta = 6 * time.Second
	floodUserDelta   = 8 * time.Second
)

// floodGate throttles miscellaneous commands with a shared channel-wide gap
// plus a longer per-user gap. Admins bypass it entirely.
type floodGate struct {
	mu      sync.Mutex
	global  time.Time
	perUser map[string]time.Time
	globalD time.Duration
	userD   time.Duration
	admin   func(user string) bool
	now     func() time.Time
}

func newFloodGate(admin func(string) bool) *floodGate {
	return &floodGate{
		perUser: make(map[string]time.Time),
		globalD: floodGlobalDelta,
		userD:   floodUserDelta,
		admin:   admin,
		now:     time.Now,
	}
}

// allow reports whether user may run a throttled command now, and if so
// starts the next cooldown period.
func (g *floodGate) allow(user string) bool {
	if g.admin != nil && g.admin(user) {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if now.Before(g.global) {
		return false
	}
	if until, ok := g.perUser[user]; ok && now.Before(until) {
		return false
	}
	g.global = now.Add(g.globalD)
	g.perUser[user] = now.Add(g.userD)
	return true
}
