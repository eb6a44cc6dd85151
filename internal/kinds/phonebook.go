package kinds

import (
	"context"

	"github.com/roach88/stately/internal/codec"
	"github.com/roach88/stately/internal/entity"
	"github.com/roach88/stately/internal/registry"
)

// phonebookEntry is the typed payload of the phonebook set operation.
type phonebookEntry struct {
	Name   string `json:"name"`
	Number int64  `json:"number"`
}

// RegisterPhonebook registers the phonebook kind: a name-to-number mapping.
// Looking up an absent name is a PRECONDITION failure, which callers can
// tell apart from a CONTENT_DECODING failure on a malformed payload.
func RegisterPhonebook(reg *registry.Registry) {
	k := reg.Kind("phonebook")

	registry.Op(k, "set", codec.DecodeRecord[phonebookEntry], func(ctx context.Context, op *entity.OpContext, e phonebookEntry) (codec.Value, error) {
		book := phonebookState(op)
		book[e.Name] = codec.Int(e.Number)
		op.Set(book)
		return nil, nil
	})

	registry.Op(k, "lookup", codec.AsString, func(ctx context.Context, op *entity.OpContext, name string) (codec.Value, error) {
		book := phonebookState(op)
		num, ok := book[name]
		if !ok {
			return nil, entity.NewPrecondition(op.Self(), "lookup", "no entry for "+name)
		}
		return num, nil
	})

	registry.Op(k, "remove", codec.AsString, func(ctx context.Context, op *entity.OpContext, name string) (codec.Value, error) {
		book := phonebookState(op)
		_, existed := book[name]
		if existed {
			delete(book, name)
			op.Set(book)
		}
		return codec.Bool(existed), nil
	})

	registry.Op(k, "entries", codec.AsNone, func(ctx context.Context, op *entity.OpContext, _ struct{}) (codec.Value, error) {
		return phonebookState(op), nil
	})

	registry.Op(k, "delete", codec.AsNone, func(ctx context.Context, op *entity.OpContext, _ struct{}) (codec.Value, error) {
		op.Destruct()
		return nil, nil
	})
}

func phonebookState(op *entity.OpContext) codec.Map {
	if !op.Exists() {
		return codec.Map{}
	}
	m, err := codec.AsMap(op.State())
	if err != nil {
		return codec.Map{}
	}
	return m
}
