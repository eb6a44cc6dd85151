package scheduler

import "github.com/google/uuid"

// TokenGenerator generates correlation tokens for submitted operations.
// Implemented by UUIDv7Generator (production) and the fixed generator in
// testutil (deterministic tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 tokens, so a journal
// filtered by token reads in rough submission order across entities.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
