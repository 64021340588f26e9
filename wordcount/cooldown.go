package wordcount

import (
	"sync"
	"time"
)

// DefaultCooldown is the gap enforced between answered queries.
const DefaultCooldown = 12 * time.Second

// Cooldown is a single shared gate for the query engine. While closed, all
// query requests from all users are dropped without a reply.
type Cooldown struct {
	mu        sync.Mutex
	notBefore time.Time
	delta     time.Duration
	now       func() time.Time
}

func NewCooldown(delta time.Duration) *Cooldown {
	if delta <= 0 {
		delta = DefaultCooldown
	}
	return &Cooldown{delta: delta, now: time.Now}
}

// Ready reports whether the gate is open.
func (c *Cooldown) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.now().Before(c.notBefore)
}

// Touch closes the gate for the configured delta.
func (c *Cooldown) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notBefore = c.now().Add(c.delta)
}
