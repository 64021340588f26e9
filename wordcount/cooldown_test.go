package wordcount

import (
	"testing"
	"time"
)

func TestCooldownGate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewCooldown(12 * time.Second)
	c.setClock(func() time.Time { return now })

	if !c.Ready() {
		t.Fatal("gate should start open")
	}
	c.Touch()
	if c.Ready() {
		t.Fatal("gate should be closed right after Touch")
	}
	now = now.Add(11 * time.Second)
	if c.Ready() {
		t.Fatal("gate should still be closed before delta elapses")
	}
	now = now.Add(time.Second)
	if !c.Ready() {
		t.Fatal("gate should reopen once delta elapses")
	}
}

func TestCooldownDefaultDelta(t *testing.T) {
	c := NewCooldown(0)
	if c.delta != DefaultCooldown {
		t.Errorf("delta = %v, want %v", c.delta, DefaultCooldown)
	}
}
