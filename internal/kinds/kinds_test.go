package kinds

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stately/internal/activity"
	"github.com/roach88/stately/internal/codec"
	"github.com/roach88/stately/internal/entity"
	"github.com/roach88/stately/internal/lifecycle"
	"github.com/roach88/stately/internal/registry"
	"github.com/roach88/stately/internal/scheduler"
	"github.com/roach88/stately/internal/store"
)

func newRuntime(t *testing.T) (*scheduler.Scheduler, *store.Mem) {
	t.Helper()
	reg := registry.New()
	RegisterAll(reg)

	inv := activity.NewLocal()
	require.NoError(t, RegisterActivities(inv))

	mem := store.NewMem()
	life := lifecycle.NewManager(lifecycle.WithStore(mem), lifecycle.WithJournal(mem))
	s := scheduler.New(reg, life, scheduler.WithInvoker(inv))
	t.Cleanup(s.Close)
	return s, mem
}

func TestStringStoreSetThenGet(t *testing.T) {
	s, _ := newRuntime(t)
	ctx := context.Background()
	id := entity.ID{Kind: "stringstore", Key: "s1"}

	_, err := s.Call(ctx, id, "set", codec.Str("hello"))
	require.NoError(t, err)

	out, err := s.Call(ctx, id, "get", nil)
	require.NoError(t, err)
	assert.True(t, codec.Equal(codec.Str("hello"), out))
}

func TestStringStoreAbsentReadsEmpty(t *testing.T) {
	s, _ := newRuntime(t)
	out, err := s.Call(context.Background(), entity.ID{Kind: "stringstore", Key: "fresh"}, "get", nil)
	require.NoError(t, err)
	assert.True(t, codec.Equal(codec.Str(""), out))
}

func TestStringStoreAppend(t *testing.T) {
	s, _ := newRuntime(t)
	ctx := context.Background()
	id := entity.ID{Kind: "stringstore", Key: "a"}

	_, err := s.Call(ctx, id, "append", codec.Str("foo"))
	require.NoError(t, err)
	out, err := s.Call(ctx, id, "append", codec.Str("bar"))
	require.NoError(t, err)
	assert.True(t, codec.Equal(codec.Str("foobar"), out))
}

func TestStringStoreV2StrictGet(t *testing.T) {
	s, _ := newRuntime(t)
	ctx := context.Background()
	id := entity.ID{Kind: "stringstore2", Key: "s2"}

	// get before any set fails and destructs
	_, err := s.Call(ctx, id, "get", nil)
	require.Error(t, err)
	assert.True(t, entity.IsPrecondition(err))

	// after a fresh set the entity behaves like the lenient store
	_, err = s.Call(ctx, id, "set", codec.Str("hello"))
	require.NoError(t, err)
	out, err := s.Call(ctx, id, "get", nil)
	require.NoError(t, err)
	assert.True(t, codec.Equal(codec.Str("hello"), out))
}

func TestCounterArithmetic(t *testing.T) {
	s, _ := newRuntime(t)
	ctx := context.Background()
	id := entity.ID{Kind: "counter", Key: "c"}

	_, err := s.Call(ctx, id, "increment", nil)
	require.NoError(t, err)
	_, err = s.Call(ctx, id, "increment", nil)
	require.NoError(t, err)
	_, err = s.Call(ctx, id, "add", codec.Int(5))
	require.NoError(t, err)

	out, err := s.Call(ctx, id, "get", nil)
	require.NoError(t, err)
	assert.True(t, codec.Equal(codec.Int(7), out))

	_, err = s.Call(ctx, id, "decrement", nil)
	require.NoError(t, err)
	out, err = s.Call(ctx, id, "get", nil)
	require.NoError(t, err)
	assert.True(t, codec.Equal(codec.Int(6), out))
}

func TestCounterDeleteIdempotent(t *testing.T) {
	s, _ := newRuntime(t)
	ctx := context.Background()
	id := entity.ID{Kind: "counter", Key: "d"}

	_, err := s.Call(ctx, id, "increment", nil)
	require.NoError(t, err)

	// delete twice in a row: this kind's policy is that the second delete,
	// against an already-absent counter, is a no-op success
	_, err = s.Call(ctx, id, "delete", nil)
	require.NoError(t, err)
	_, err = s.Call(ctx, id, "delete", nil)
	require.NoError(t, err)

	out, err := s.Call(ctx, id, "get", nil)
	require.NoError(t, err)
	assert.True(t, codec.Equal(codec.Int(0), out), "counter reads as zero after destruction")
}

func TestPhonebookLookup(t *testing.T) {
	s, _ := newRuntime(t)
	ctx := context.Background()
	id := entity.ID{Kind: "phonebook", Key: "home"}

	_, err := s.Call(ctx, id, "set", codec.Map{"name": codec.Str("alice"), "number": codec.Int(12345)})
	require.NoError(t, err)

	out, err := s.Call(ctx, id, "lookup", codec.Str("alice"))
	require.NoError(t, err)
	assert.True(t, codec.Equal(codec.Int(12345), out))

	// absent name is a precondition failure, not a decoding one
	_, err = s.Call(ctx, id, "lookup", codec.Str("bob"))
	require.Error(t, err)
	assert.True(t, entity.IsPrecondition(err))
	assert.False(t, entity.IsDecodeError(err))

	// malformed payload is a decoding failure, not a precondition one
	_, err = s.Call(ctx, id, "set", codec.Map{"name": codec.Str("x"), "phone": codec.Int(1)})
	require.Error(t, err)
	assert.True(t, entity.IsDecodeError(err))
	assert.False(t, entity.IsPrecondition(err))
}

func TestPhonebookRemoveAndEntries(t *testing.T) {
	s, _ := newRuntime(t)
	ctx := context.Background()
	id := entity.ID{Kind: "phonebook", Key: "work"}

	_, err := s.Call(ctx, id, "set", codec.Map{"name": codec.Str("alice"), "number": codec.Int(1)})
	require.NoError(t, err)
	_, err = s.Call(ctx, id, "set", codec.Map{"name": codec.Str("bob"), "number": codec.Int(2)})
	require.NoError(t, err)

	out, err := s.Call(ctx, id, "remove", codec.Str("alice"))
	require.NoError(t, err)
	assert.True(t, codec.Equal(codec.Bool(true), out))

	out, err = s.Call(ctx, id, "remove", codec.Str("alice"))
	require.NoError(t, err)
	assert.True(t, codec.Equal(codec.Bool(false), out), "removing an absent name reports false")

	out, err = s.Call(ctx, id, "entries", nil)
	require.NoError(t, err)
	assert.True(t, codec.Equal(codec.Map{"bob": codec.Int(2)}, out))
}

func TestTextStoreConcurrentAppendsSerialize(t *testing.T) {
	s, _ := newRuntime(t)
	ctx := context.Background()
	id := entity.ID{Kind: "textstore", Key: "blob"}

	// Two concurrent appends to the same entity. Either total order is
	// acceptable; an interleaved buffer is not.
	fa := s.Submit(ctx, entity.Envelope{ID: id, Op: "append", Content: codec.Str("A")})
	fb := s.Submit(ctx, entity.Envelope{ID: id, Op: "append", Content: codec.Str("B")})
	_, errA := fa.Wait(ctx)
	_, errB := fb.Wait(ctx)
	require.NoError(t, errA)
	require.NoError(t, errB)

	out, err := s.Call(ctx, id, "get", nil)
	require.NoError(t, err)
	text, err := codec.AsString(out)
	require.NoError(t, err)
	assert.Contains(t, []string{"AB", "BA"}, text)
}

func TestTextStoreChecksumTracksText(t *testing.T) {
	s, _ := newRuntime(t)
	ctx := context.Background()
	id := entity.ID{Kind: "textstore", Key: "sum"}

	_, err := s.Call(ctx, id, "append", codec.Str("hello"))
	require.NoError(t, err)

	out, err := s.Call(ctx, id, "checksum", nil)
	require.NoError(t, err)

	want := sha256.Sum256([]byte("hello"))
	assert.True(t, codec.Equal(codec.Str(hex.EncodeToString(want[:])), out))
}

func TestTextStoreChecksumBeforeAppend(t *testing.T) {
	s, _ := newRuntime(t)
	_, err := s.Call(context.Background(), entity.ID{Kind: "textstore", Key: "none"}, "checksum", nil)
	require.Error(t, err)
	assert.True(t, entity.IsPrecondition(err))
}

func TestTextStoreSurvivesRestart(t *testing.T) {
	reg := registry.New()
	RegisterAll(reg)
	inv := activity.NewLocal()
	require.NoError(t, RegisterActivities(inv))
	mem := store.NewMem()
	life := lifecycle.NewManager(lifecycle.WithStore(mem), lifecycle.WithJournal(mem))

	ctx := context.Background()
	id := entity.ID{Kind: "textstore", Key: "persist"}

	s1 := scheduler.New(reg, life, scheduler.WithInvoker(inv))
	_, err := s1.Call(ctx, id, "append", codec.Str("durable"))
	require.NoError(t, err)
	s1.Close()

	s2 := scheduler.New(reg, life, scheduler.WithInvoker(inv))
	defer s2.Close()
	out, err := s2.Call(ctx, id, "get", nil)
	require.NoError(t, err)
	assert.True(t, codec.Equal(codec.Str("durable"), out))
}

func TestJournalCoversBuiltinKinds(t *testing.T) {
	s, mem := newRuntime(t)
	ctx := context.Background()
	id := entity.ID{Kind: "counter", Key: "audit"}

	_, err := s.Call(ctx, id, "increment", nil)
	require.NoError(t, err)
	_, err = s.Call(ctx, id, "add", codec.Int(2))
	require.NoError(t, err)

	recs, err := mem.Records(ctx, store.Query{Entity: &id})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "increment", recs[0].Op)
	assert.Equal(t, "add", recs[1].Op)
	assert.Equal(t, "2", recs[1].Content)
	assert.Equal(t, "3", recs[1].Result)
}
