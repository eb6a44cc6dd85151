package scheduler

import "sync/atomic"

// Clock is a monotonic logical clock. Every submitted operation is stamped
// with a strictly increasing seq, which becomes its journal sequence and
// fixes the per-entity application order for replay and tracing.
//
// Thread-safety: safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used to resume numbering above an existing journal.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
