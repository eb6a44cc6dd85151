package testutil

import (
	"fmt"
	"sync"
)

// SequentialTokens generates numbered correlation tokens: prefix-000001,
// prefix-000002, and so on. The same scenario run twice produces
// byte-identical journals, which is what golden snapshot comparison needs.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialTokens struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialTokens creates a generator. An empty prefix defaults to
// "test-token".
func NewSequentialTokens(prefix string) *SequentialTokens {
	if prefix == "" {
		prefix = "test-token"
	}
	return &SequentialTokens{prefix: prefix}
}

// Generate returns the next numbered token.
func (g *SequentialTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%06d", g.prefix, g.n)
}

// Reset restarts numbering for scenario reuse.
func (g *SequentialTokens) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

// FixedToken always generates the same token. Useful when every operation
// in a scenario should share one correlation token.
type FixedToken string

// Generate returns the fixed token.
func (t FixedToken) Generate() string {
	return string(t)
}
