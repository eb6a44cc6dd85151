// Package activity provides the invoker behind handlers' awaited external
// calls. Local runs registered activity functions in-process with an
// optional per-call timeout; a failure or timeout is the failure of that
// one call and never cancels the calling entity.
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/stately/internal/codec"
)

// Func is one registered activity. It receives the handler-supplied input
// and must respect ctx cancellation for long work.
type Func func(ctx context.Context, input codec.Value) (codec.Value, error)

// Local dispatches activity calls to functions registered in-process.
// Thread-safe: registration typically happens at startup, but Invoke may
// run from many entity workers concurrently.
type Local struct {
	mu      sync.RWMutex
	funcs   map[string]Func
	timeout time.Duration
}

// Option configures a Local invoker.
type Option func(*Local)

// WithTimeout bounds every activity call. Zero (the default) means no
// timeout beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(l *Local) {
		l.timeout = d
	}
}

// NewLocal creates an empty invoker.
func NewLocal(opts ...Option) *Local {
	l := &Local{funcs: make(map[string]Func)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register adds an activity function under a name. Duplicate names are an
// error so two components cannot silently shadow each other.
func (l *Local) Register(name string, fn Func) error {
	if fn == nil {
		return fmt.Errorf("activity %q: nil function", name)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.funcs[name]; exists {
		return fmt.Errorf("activity %q already registered", name)
	}
	l.funcs[name] = fn
	return nil
}

// Invoke runs a registered activity and waits for its result. The entity
// worker calling this holds its entity for the whole wait - exclusivity
// spans the await point by construction.
func (l *Local) Invoke(ctx context.Context, name string, input codec.Value) (codec.Value, error) {
	l.mu.RLock()
	fn, ok := l.funcs[name]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown activity %q", name)
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	type result struct {
		out codec.Value
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := fn(ctx, input)
		done <- result{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		slog.Warn("activity call abandoned", "activity", name, "reason", ctx.Err())
		return nil, fmt.Errorf("activity %q: %w", name, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("activity %q: %w", name, res.err)
		}
		return res.out, nil
	}
}
