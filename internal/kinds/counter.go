package kinds

import (
	"context"

	"github.com/roach88/stately/internal/codec"
	"github.com/roach88/stately/internal/entity"
	"github.com/roach88/stately/internal/registry"
)

// RegisterCounter registers the counter kind: an in-memory integer with
// arithmetic operations. A fresh counter reads as 0; delete on an absent
// counter is a no-op success (deletion idempotence is this kind's policy).
func RegisterCounter(reg *registry.Registry) {
	k := reg.Kind("counter")

	registry.Op(k, "get", codec.AsNone, func(ctx context.Context, op *entity.OpContext, _ struct{}) (codec.Value, error) {
		return counterValue(op), nil
	})

	registry.Op(k, "set", codec.AsInt, func(ctx context.Context, op *entity.OpContext, n int64) (codec.Value, error) {
		op.Set(codec.Int(n))
		return codec.Int(n), nil
	})

	registry.Op(k, "add", codec.AsInt, func(ctx context.Context, op *entity.OpContext, n int64) (codec.Value, error) {
		return counterAdd(op, n)
	})

	registry.Op(k, "increment", codec.AsNone, func(ctx context.Context, op *entity.OpContext, _ struct{}) (codec.Value, error) {
		return counterAdd(op, 1)
	})

	registry.Op(k, "decrement", codec.AsNone, func(ctx context.Context, op *entity.OpContext, _ struct{}) (codec.Value, error) {
		return counterAdd(op, -1)
	})

	registry.Op(k, "delete", codec.AsNone, func(ctx context.Context, op *entity.OpContext, _ struct{}) (codec.Value, error) {
		op.Destruct()
		return nil, nil
	})
}

func counterValue(op *entity.OpContext) codec.Int {
	if !op.Exists() {
		return 0
	}
	n, err := codec.AsInt(op.State())
	if err != nil {
		return 0
	}
	return codec.Int(n)
}

func counterAdd(op *entity.OpContext, delta int64) (codec.Value, error) {
	next := counterValue(op) + codec.Int(delta)
	op.Set(next)
	return next, nil
}
