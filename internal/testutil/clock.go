package testutil

import (
	"sync"
	"time"
)

// FrozenClock is a deterministic wall clock for tests and golden traces.
// Each Now call returns the current instant and advances it by a fixed
// step, so repeated runs of the same scenario stamp identical times.
//
// Thread-safety: all methods are safe for concurrent use.
type FrozenClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewFrozenClock creates a clock starting at start, advancing by step on
// every Now call. A zero step freezes time completely.
func NewFrozenClock(start time.Time, step time.Duration) *FrozenClock {
	return &FrozenClock{now: start, step: step}
}

// Now returns the current instant and advances the clock.
func (c *FrozenClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Reset rewinds the clock to start for scenario reuse.
func (c *FrozenClock) Reset(start time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = start
}
