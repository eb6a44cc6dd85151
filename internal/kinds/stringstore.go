package kinds

import (
	"context"

	"github.com/roach88/stately/internal/codec"
	"github.com/roach88/stately/internal/entity"
	"github.com/roach88/stately/internal/registry"
)

// RegisterStringStore registers the lenient string store: get on an absent
// entity reads as the empty string, and append starts from it.
func RegisterStringStore(reg *registry.Registry) {
	k := reg.Kind("stringstore")

	registry.Op(k, "get", codec.AsNone, func(ctx context.Context, op *entity.OpContext, _ struct{}) (codec.Value, error) {
		return codec.Str(storedString(op)), nil
	})

	registry.Op(k, "set", codec.AsString, func(ctx context.Context, op *entity.OpContext, s string) (codec.Value, error) {
		op.Set(codec.Str(s))
		return nil, nil
	})

	registry.Op(k, "append", codec.AsString, func(ctx context.Context, op *entity.OpContext, part string) (codec.Value, error) {
		next := codec.Str(storedString(op) + part)
		op.Set(next)
		return next, nil
	})

	registry.Op(k, "delete", codec.AsNone, func(ctx context.Context, op *entity.OpContext, _ struct{}) (codec.Value, error) {
		op.Destruct()
		return nil, nil
	})
}

// RegisterStringStoreV2 registers the strict variant on structured
// dispatch. Reading before the first set is a precondition failure that
// also destructs the entity, so the next touch starts a fresh epoch.
func RegisterStringStoreV2(reg *registry.Registry) {
	reg.StructuredKind("stringstore2", func(bindOp *entity.OpContext) (registry.Ops, error) {
		return registry.Ops{
			"get": registry.Bind(codec.AsNone, func(ctx context.Context, op *entity.OpContext, _ struct{}) (codec.Value, error) {
				if !op.Exists() {
					op.Destruct()
					return nil, entity.NewPrecondition(op.Self(), "get", "read before first set")
				}
				return op.State(), nil
			}),
			"set": registry.Bind(codec.AsString, func(ctx context.Context, op *entity.OpContext, s string) (codec.Value, error) {
				op.Set(codec.Str(s))
				return nil, nil
			}),
			"delete": registry.Bind(codec.AsNone, func(ctx context.Context, op *entity.OpContext, _ struct{}) (codec.Value, error) {
				op.Destruct()
				return nil, nil
			}),
		}, nil
	})
}

func storedString(op *entity.OpContext) string {
	if !op.Exists() {
		return ""
	}
	s, err := codec.AsString(op.State())
	if err != nil {
		return ""
	}
	return s
}
