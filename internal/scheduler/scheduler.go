package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/stately/internal/codec"
	"github.com/roach88/stately/internal/entity"
	"github.com/roach88/stately/internal/lifecycle"
	"github.com/roach88/stately/internal/registry"
	"github.com/roach88/stately/internal/store"
)

// DefaultWorkers bounds how many entity mailboxes drain concurrently.
const DefaultWorkers = 16

// pending is one queued operation: its envelope, the submission context
// (governs cancellation only while still queued), and the caller's future.
type pending struct {
	env entity.Envelope
	ctx context.Context
	fut *Future
	seq int64
}

// mailbox is one entity's operation queue plus its resident activation
// state. The cell and caps fields are owned by whichever worker holds the
// mailbox; the queue is guarded by mu.
type mailbox struct {
	mu      sync.Mutex
	queue   []*pending
	running bool
	dead    bool // unlinked from the scheduler map; submitters must re-fetch

	// Activation state. Touched only by the owning worker, except phase,
	// which is also read by Scheduler.Phase and so goes through setPhase.
	cell  *entity.StateCell
	caps  registry.Ops
	phase lifecycle.Phase
}

func (b *mailbox) setPhase(p lifecycle.Phase) {
	b.mu.Lock()
	b.phase = p
	b.mu.Unlock()
}

// Scheduler serializes operations per entity identity and runs unrelated
// entities concurrently.
//
// Guarantees:
//   - Strict FIFO per identity in submission order; no cross-identity order.
//   - At most one operation in flight per identity, including across
//     awaited activity calls inside a handler.
//   - A handler error resolves only that operation's future; the mailbox
//     continues against the last committed state.
//   - An operation still queued is cancellable via its submission context;
//     once started it runs to completion or failure.
type Scheduler struct {
	reg     *registry.Registry
	life    *lifecycle.Manager
	invoker entity.Invoker
	clock   *Clock
	tokens  TokenGenerator
	now     func() time.Time

	slots chan struct{} // worker pool semaphore

	mu     sync.Mutex
	boxes  map[entity.ID]*mailbox
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWorkers sets the size of the worker pool draining mailboxes.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.slots = make(chan struct{}, n)
		}
	}
}

// WithInvoker supplies the activity invoker handlers reach through
// OpContext.Invoke.
func WithInvoker(inv entity.Invoker) Option {
	return func(s *Scheduler) {
		s.invoker = inv
	}
}

// WithTokens replaces the correlation token generator. Tests use a fixed
// generator for deterministic journals.
func WithTokens(gen TokenGenerator) Option {
	return func(s *Scheduler) {
		s.tokens = gen
	}
}

// WithClock replaces the logical clock, e.g. to resume numbering above an
// existing journal.
func WithClock(c *Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithNow replaces the wall clock stamped on envelopes that arrive without
// a time. Tests use a deterministic clock.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New creates a Scheduler over a dispatch registry and a lifecycle manager.
func New(reg *registry.Registry, life *lifecycle.Manager, opts ...Option) *Scheduler {
	s := &Scheduler{
		reg:    reg,
		life:   life,
		clock:  NewClock(),
		tokens: UUIDv7Generator{},
		now:    time.Now,
		slots:  make(chan struct{}, DefaultWorkers),
		boxes:  make(map[entity.ID]*mailbox),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit enqueues an operation envelope on its entity's queue and returns
// a future for the result. ctx cancellation applies only while the
// operation is still queued.
func (s *Scheduler) Submit(ctx context.Context, env entity.Envelope) *Future {
	fut := newFuture()

	if env.Token == "" {
		env.Token = s.tokens.Generate()
	}
	if env.Time.IsZero() {
		env.Time = s.now()
	}

	// Accept or reject under s.mu. The wg unit taken here is released by the
	// worker when the operation finishes, so Close cannot return while an
	// accepted operation is still queued or in flight.
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fut.resolve(nil, fmt.Errorf("scheduler closed"))
		return fut
	}
	s.wg.Add(1)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		box, ok := s.boxes[env.ID]
		if !ok {
			box = &mailbox{phase: lifecycle.Absent}
			s.boxes[env.ID] = box
		}
		s.mu.Unlock()

		box.mu.Lock()
		if box.dead {
			// Lost the race against eviction: the box is already unlinked.
			// Re-fetch so the operation lands on a live mailbox.
			box.mu.Unlock()
			continue
		}
		// Seq is assigned under the queue lock so per-entity application
		// order always matches seq order in the journal.
		box.queue = append(box.queue, &pending{env: env, ctx: ctx, fut: fut, seq: s.clock.Next()})
		start := !box.running
		box.running = true
		box.mu.Unlock()

		if start {
			go s.drain(env.ID, box)
		}
		return fut
	}
}

// Call submits an operation and waits for its result.
func (s *Scheduler) Call(ctx context.Context, id entity.ID, op string, content codec.Value) (codec.Value, error) {
	fut := s.Submit(ctx, entity.Envelope{ID: id, Op: op, Content: content})
	return fut.Wait(ctx)
}

// Close stops accepting new operations and waits until every queued and
// in-flight operation has drained.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

// Phase returns the lifecycle phase of an identity. Identities with no
// resident mailbox are Absent.
func (s *Scheduler) Phase(id entity.ID) lifecycle.Phase {
	s.mu.Lock()
	box, ok := s.boxes[id]
	s.mu.Unlock()
	if !ok {
		return lifecycle.Absent
	}
	box.mu.Lock()
	defer box.mu.Unlock()
	return box.phase
}

// QueueLen returns the number of operations queued for an identity.
// Useful for monitoring and testing.
func (s *Scheduler) QueueLen(id entity.ID) int {
	s.mu.Lock()
	box, ok := s.boxes[id]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	box.mu.Lock()
	defer box.mu.Unlock()
	return len(box.queue)
}

// drain is the worker loop for one mailbox. Exactly one drain goroutine
// owns a mailbox at a time - that ownership is the entity-exclusivity
// guarantee, and it spans handler await points because the worker only
// moves on when apply returns.
func (s *Scheduler) drain(id entity.ID, box *mailbox) {
	// Bound global concurrency; queued entities wait for a slot.
	s.slots <- struct{}{}
	defer func() { <-s.slots }()

	for {
		box.mu.Lock()
		if len(box.queue) == 0 {
			s.release(id, box)
			box.mu.Unlock()
			return
		}
		p := box.queue[0]
		box.queue[0] = nil // allow GC of resolved operations
		box.queue = box.queue[1:]
		box.mu.Unlock()

		// Cancellation window: only before the operation starts.
		if err := p.ctx.Err(); err != nil {
			p.fut.resolve(nil, fmt.Errorf("operation cancelled while queued: %w", err))
		} else {
			s.apply(id, box, p)
		}
		s.wg.Done()
	}
}

// release parks a drained mailbox. Storage-backed entities are evicted
// (deactivation: the next operation reloads from the store); in-memory
// entities stay resident until destructed. Called with box.mu held.
func (s *Scheduler) release(id entity.ID, box *mailbox) {
	box.running = false

	evict := box.cell == nil
	if kind, ok := s.reg.Lookup(id.Kind); ok && kind.StorageBacked() && box.cell != nil {
		box.cell = nil
		box.caps = nil
		box.phase = lifecycle.Absent
		evict = true
		slog.Debug("entity deactivated", "entity", id)
	}

	if evict {
		// Unlink and tombstone. box.mu is held here, so no append can slip
		// in between the drain loop's emptiness check and the unlink; a
		// Submit that already fetched this box observes dead under box.mu
		// and re-fetches from the map.
		s.mu.Lock()
		delete(s.boxes, id)
		s.mu.Unlock()
		box.dead = true
	}
}

// apply runs one operation to completion: materialize if needed, dispatch,
// commit, resolve. Commit happens-before the future resolves, so callers
// never observe a result that did not become durable.
func (s *Scheduler) apply(id entity.ID, box *mailbox, p *pending) {
	ctx := context.Background()

	kind, ok := s.reg.Lookup(id.Kind)
	if !ok {
		p.fut.resolve(nil, entity.NewUnsupported(id, p.env.Op))
		return
	}

	// Materialize on first touch of an activation.
	if box.cell == nil {
		if kind.StorageBacked() {
			box.setPhase(lifecycle.Loading)
		}
		cell, err := s.life.Materialize(ctx, id, kind.StorageBacked())
		if err != nil {
			// Store unavailable: fail this operation, stay un-materialized
			// so the next operation retries the load.
			box.setPhase(lifecycle.Absent)
			s.journalFailure(ctx, id, p, err)
			p.fut.resolve(nil, err)
			return
		}
		box.cell = cell
	}
	box.setPhase(lifecycle.Active)

	opCtx := entity.NewOpContext(id, p.env.Op, p.env.Time, p.seq, box.cell, s.invoker)

	handler, err := s.resolveHandler(kind, box, opCtx, p.env.Op)
	if err != nil {
		s.journalFailure(ctx, id, p, err)
		p.fut.resolve(nil, err)
		return
	}

	// Snapshot for rollback: a failed operation must leave the cell at its
	// last committed state.
	snapshot := entity.StateCell{
		Exists: box.cell.Exists,
		Value:  codec.Clone(box.cell.Value),
	}

	out, err := handler(ctx, opCtx, p.env.Content)
	if err != nil {
		destructRequested := box.cell.PendingDestruct
		*box.cell = snapshot

		// A handler may fail AND request destruction (strict get-on-absent
		// policies do both). Honor the destruct against the committed state.
		if destructRequested {
			box.cell.PendingDestruct = true
			box.setPhase(lifecycle.Deactivating)
			rec := s.record(p, entity.OutcomeError, "", err)
			if _, cerr := s.life.Commit(ctx, id, kind.StorageBacked(), box.cell, rec); cerr != nil {
				box.cell.PendingDestruct = false
				slog.Error("destruct commit failed", "entity", id, "op", p.env.Op, "error", cerr)
				p.fut.resolve(nil, cerr)
				return
			}
			box.caps = nil
			box.setPhase(lifecycle.Absent)
		} else {
			s.journalFailure(ctx, id, p, err)
		}

		slog.Debug("operation failed", "entity", id, "op", p.env.Op, "seq", p.seq, "error", err)
		p.fut.resolve(nil, err)
		return
	}

	outcome := entity.OutcomeOK
	if box.cell.PendingDestruct {
		box.setPhase(lifecycle.Deactivating)
	}
	rec := s.record(p, outcome, encodeResult(out), nil)

	destructed, cerr := s.life.Commit(ctx, id, kind.StorageBacked(), box.cell, rec)
	if cerr != nil {
		// Last known-good state is restored; the entity stays usable.
		*box.cell = snapshot
		box.setPhase(lifecycle.Active)
		slog.Error("commit failed", "entity", id, "op", p.env.Op, "seq", p.seq, "error", cerr)
		p.fut.resolve(nil, cerr)
		return
	}
	if destructed {
		box.caps = nil
		box.setPhase(lifecycle.Absent)
	} else {
		box.setPhase(lifecycle.Active)
	}

	slog.Debug("operation applied",
		"entity", id,
		"op", p.env.Op,
		"seq", p.seq,
		"token", p.env.Token,
		"destructed", destructed,
	)
	p.fut.resolve(out, nil)
}

// resolveHandler finds the handler for an operation name. Structured kinds
// build their capability set once per activation and cache it until the
// activation ends.
func (s *Scheduler) resolveHandler(kind *registry.Kind, box *mailbox, opCtx *entity.OpContext, op string) (entity.Handler, error) {
	if kind.Structured() {
		if box.caps == nil {
			caps, err := kind.Bind(opCtx)
			if err != nil {
				return nil, fmt.Errorf("construct capability set: %w", err)
			}
			box.caps = caps
		}
		h, ok := box.caps[op]
		if !ok {
			return nil, entity.NewUnsupported(opCtx.Self(), op)
		}
		return h, nil
	}

	h, ok := kind.Resolve(op)
	if !ok {
		return nil, entity.NewUnsupported(opCtx.Self(), op)
	}
	return h, nil
}

// record builds the journal row for one operation.
func (s *Scheduler) record(p *pending, outcome entity.Outcome, result string, opErr error) store.Record {
	rec := store.Record{
		Seq:     p.seq,
		Token:   p.env.Token,
		Entity:  p.env.ID,
		Op:      p.env.Op,
		Content: encodeResult(p.env.Content),
		Outcome: outcome,
		Result:  result,
	}
	if opErr != nil {
		rec.Error = opErr.Error()
	}
	return rec
}

// journalFailure records an operation that failed without changing state.
func (s *Scheduler) journalFailure(ctx context.Context, id entity.ID, p *pending, opErr error) {
	j := s.life.Journal()
	if j == nil {
		return
	}
	if err := j.Append(ctx, s.record(p, entity.OutcomeError, "", opErr)); err != nil {
		slog.Error("journal append failed", "entity", id, "op", p.env.Op, "error", err)
	}
}

// encodeResult renders a value as canonical JSON text for the journal.
func encodeResult(v codec.Value) string {
	if v == nil {
		return ""
	}
	data, err := codec.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("<unencodable: %v>", err)
	}
	return string(data)
}
