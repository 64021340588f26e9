package wordcount

import "time"

func (c *Cooldown) setClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
