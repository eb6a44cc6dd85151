package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stately/internal/codec"
)

func TestInvoke(t *testing.T) {
	inv := NewLocal()
	require.NoError(t, inv.Register("double", func(_ context.Context, in codec.Value) (codec.Value, error) {
		n, err := codec.AsInt(in)
		if err != nil {
			return nil, err
		}
		return codec.Int(n * 2), nil
	}))

	out, err := inv.Invoke(context.Background(), "double", codec.Int(21))
	require.NoError(t, err)
	assert.Equal(t, codec.Int(42), out)
}

func TestInvokeUnknownActivity(t *testing.T) {
	inv := NewLocal()
	_, err := inv.Invoke(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown activity")
}

func TestRegisterDuplicate(t *testing.T) {
	inv := NewLocal()
	fn := func(_ context.Context, _ codec.Value) (codec.Value, error) { return nil, nil }
	require.NoError(t, inv.Register("a", fn))
	assert.Error(t, inv.Register("a", fn))
}

func TestRegisterNil(t *testing.T) {
	inv := NewLocal()
	assert.Error(t, inv.Register("a", nil))
}

func TestInvokeError(t *testing.T) {
	inv := NewLocal()
	boom := errors.New("boom")
	require.NoError(t, inv.Register("fail", func(_ context.Context, _ codec.Value) (codec.Value, error) {
		return nil, boom
	}))

	_, err := inv.Invoke(context.Background(), "fail", nil)
	assert.True(t, errors.Is(err, boom))
}

func TestInvokeTimeout(t *testing.T) {
	inv := NewLocal(WithTimeout(20 * time.Millisecond))
	require.NoError(t, inv.Register("slow", func(ctx context.Context, _ codec.Value) (codec.Value, error) {
		select {
		case <-time.After(5 * time.Second):
			return codec.Str("too late"), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}))

	_, err := inv.Invoke(context.Background(), "slow", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestInvokeHonorsCallerContext(t *testing.T) {
	inv := NewLocal()
	require.NoError(t, inv.Register("slow", func(ctx context.Context, _ codec.Value) (codec.Value, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := inv.Invoke(ctx, "slow", nil)
	assert.True(t, errors.Is(err, context.Canceled))
}
