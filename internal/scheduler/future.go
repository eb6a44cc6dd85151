package scheduler

import (
	"context"

	"github.com/roach88/stately/internal/codec"
)

// Future is the eventual result of one submitted operation. Resolved
// exactly once, after the operation's commit - a value observed through
// Wait is already durable.
type Future struct {
	done chan struct{}
	val  codec.Value
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve sets the result and wakes waiters. Must be called exactly once.
func (f *Future) resolve(val codec.Value, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Done returns a channel closed when the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the operation resolves or ctx expires. An expired ctx
// abandons the wait, not the operation - it may still commit.
func (f *Future) Wait(ctx context.Context) (codec.Value, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
		return f.val, f.err
	}
}
