package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/stately/internal/codec"
	"github.com/roach88/stately/internal/entity"
)

// Ops maps operation names to bound handlers. For structured kinds this is
// the capability set: an object's named methods, bound per activation.
type Ops map[string]entity.Handler

// Binder constructs a structured kind's capability set for one activation.
// The runtime calls it exactly once per activation: at first touch when the
// entity is newly constructed, and again re-derived from persisted state on
// every reactivation. The returned Ops stay cached until the activation
// ends (destruct or eviction).
type Binder func(op *entity.OpContext) (Ops, error)

// Kind describes one registered entity kind: its operation table (flat or
// structured) and whether it opts into storage-backed reactivation.
type Kind struct {
	name          string
	storageBacked bool
	ops           Ops    // flat dispatch
	binder        Binder // structured dispatch; nil for flat kinds
}

// Name returns the kind's registered name.
func (k *Kind) Name() string {
	return k.name
}

// StorageBacked reports whether state survives eviction via the backing
// store. Non-storage-backed kinds live only in memory until destructed.
func (k *Kind) StorageBacked() bool {
	return k.storageBacked
}

// Structured reports whether the kind dispatches through a per-activation
// capability set instead of a flat operation table.
func (k *Kind) Structured() bool {
	return k.binder != nil
}

// Bind builds the capability set for a structured kind's activation.
func (k *Kind) Bind(op *entity.OpContext) (Ops, error) {
	if k.binder == nil {
		return nil, fmt.Errorf("kind %q is not structured", k.name)
	}
	ops, err := k.binder(op)
	if err != nil {
		return nil, fmt.Errorf("bind kind %q: %w", k.name, err)
	}
	return ops, nil
}

// Resolve returns the flat handler for an operation name.
// Structured kinds resolve through their bound capability set instead.
func (k *Kind) Resolve(op string) (entity.Handler, bool) {
	h, ok := k.ops[op]
	return h, ok
}

// OpNames returns the registered flat operation names, sorted.
func (k *Kind) OpNames() []string {
	names := make([]string, 0, len(k.ops))
	for name := range k.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry is the dispatch table: kind name to Kind. Registration happens
// at startup; lookups run from many entity workers concurrently.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]*Kind
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{kinds: make(map[string]*Kind)}
}

// KindOption configures a kind at registration.
type KindOption func(*Kind)

// WithStorage opts the kind into storage-backed reactivation: state is
// persisted through the backing store and reloaded on next touch after
// eviction.
func WithStorage() KindOption {
	return func(k *Kind) {
		k.storageBacked = true
	}
}

// Kind registers a flat-dispatch kind. Panics on a duplicate name -
// registration is programmer-time wiring, and a silent overwrite would
// shadow another component's operations.
func (r *Registry) Kind(name string, opts ...KindOption) *Kind {
	k := &Kind{name: name, ops: make(Ops)}
	for _, opt := range opts {
		opt(k)
	}
	r.add(k)
	return k
}

// StructuredKind registers a kind whose operations are the named methods of
// a capability set constructed by binder once per activation.
func (r *Registry) StructuredKind(name string, binder Binder, opts ...KindOption) *Kind {
	if binder == nil {
		panic(fmt.Sprintf("registry: structured kind %q requires a binder", name))
	}
	k := &Kind{name: name, binder: binder}
	for _, opt := range opts {
		opt(k)
	}
	r.add(k)
	return k
}

func (r *Registry) add(k *Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.kinds[k.name]; exists {
		panic(fmt.Sprintf("registry: kind %q already registered", k.name))
	}
	r.kinds[k.name] = k
}

// Lookup returns the Kind for a name.
func (r *Registry) Lookup(name string) (*Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	return k, ok
}

// KindNames returns all registered kind names, sorted.
func (r *Registry) KindNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Op registers a flat operation on a kind. The decode function declares the
// content type the handler expects; a payload that fails to decode fails
// the operation with a CONTENT_DECODING error and leaves state untouched.
// Panics on a duplicate operation name.
func Op[T any](k *Kind, name string, decode func(codec.Value) (T, error), apply func(ctx context.Context, op *entity.OpContext, arg T) (codec.Value, error)) {
	if k.binder != nil {
		panic(fmt.Sprintf("registry: kind %q is structured; register ops through its binder", k.name))
	}
	if _, exists := k.ops[name]; exists {
		panic(fmt.Sprintf("registry: operation %q already registered on kind %q", name, k.name))
	}
	k.ops[name] = Bind(decode, apply)
}

// Bind pairs a content decoder with a typed apply function, producing an
// entity.Handler. Also used inside structured binders to type their method
// handlers.
func Bind[T any](decode func(codec.Value) (T, error), apply func(ctx context.Context, op *entity.OpContext, arg T) (codec.Value, error)) entity.Handler {
	return func(ctx context.Context, op *entity.OpContext, content codec.Value) (codec.Value, error) {
		arg, err := decode(content)
		if err != nil {
			return nil, entity.NewDecodeError(op.Self(), op.Op(), err)
		}
		return apply(ctx, op, arg)
	}
}
