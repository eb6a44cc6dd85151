package kinds

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/stately/internal/activity"
	"github.com/roach88/stately/internal/codec"
	"github.com/roach88/stately/internal/entity"
	"github.com/roach88/stately/internal/registry"
)

// ChecksumActivity names the activity textstore awaits on every append.
const ChecksumActivity = "text-checksum"

// RegisterChecksumActivity registers the SHA-256 checksum activity on a
// local invoker.
func RegisterChecksumActivity(inv *activity.Local) error {
	return inv.Register(ChecksumActivity, func(ctx context.Context, input codec.Value) (codec.Value, error) {
		s, err := codec.AsString(input)
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256([]byte(s))
		return codec.Str(hex.EncodeToString(sum[:])), nil
	})
}

// RegisterTextStore registers the storage-backed text blob kind on
// structured dispatch. State is a map {text, checksum}; append awaits the
// checksum activity mid-mutation, so concurrent appends to the same entity
// exercise exclusivity across the await point. Two concurrent appends
// serialize in some total order, never an interleaved buffer.
func RegisterTextStore(reg *registry.Registry) {
	reg.StructuredKind("textstore", func(bindOp *entity.OpContext) (registry.Ops, error) {
		return registry.Ops{
			"append": registry.Bind(codec.AsString, func(ctx context.Context, op *entity.OpContext, part string) (codec.Value, error) {
				next := textOf(op) + part
				sum, err := op.Invoke(ctx, ChecksumActivity, codec.Str(next))
				if err != nil {
					return nil, err
				}
				op.Set(codec.Map{"text": codec.Str(next), "checksum": sum})
				return codec.Str(next), nil
			}),
			"get": registry.Bind(codec.AsNone, func(ctx context.Context, op *entity.OpContext, _ struct{}) (codec.Value, error) {
				return codec.Str(textOf(op)), nil
			}),
			"checksum": registry.Bind(codec.AsNone, func(ctx context.Context, op *entity.OpContext, _ struct{}) (codec.Value, error) {
				if !op.Exists() {
					return nil, entity.NewPrecondition(op.Self(), "checksum", "no text appended yet")
				}
				m, err := codec.AsMap(op.State())
				if err != nil {
					return nil, fmt.Errorf("textstore state: %w", err)
				}
				return m["checksum"], nil
			}),
			"delete": registry.Bind(codec.AsNone, func(ctx context.Context, op *entity.OpContext, _ struct{}) (codec.Value, error) {
				op.Destruct()
				return nil, nil
			}),
		}, nil
	}, registry.WithStorage())
}

func textOf(op *entity.OpContext) string {
	if !op.Exists() {
		return ""
	}
	m, err := codec.AsMap(op.State())
	if err != nil {
		return ""
	}
	s, err := codec.AsString(m["text"])
	if err != nil {
		return ""
	}
	return s
}
