package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrozenClockAdvances(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFrozenClock(start, time.Second)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Second), c.Now())
	assert.Equal(t, start.Add(2*time.Second), c.Now())

	c.Reset(start)
	assert.Equal(t, start, c.Now())
}

func TestFrozenClockZeroStep(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFrozenClock(start, 0)
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now())
}

func TestSequentialTokens(t *testing.T) {
	g := NewSequentialTokens("scenario")
	assert.Equal(t, "scenario-000001", g.Generate())
	assert.Equal(t, "scenario-000002", g.Generate())

	g.Reset()
	assert.Equal(t, "scenario-000001", g.Generate())

	d := NewSequentialTokens("")
	assert.Equal(t, "test-token-000001", d.Generate())
}

func TestFixedToken(t *testing.T) {
	g := FixedToken("tok")
	assert.Equal(t, "tok", g.Generate())
	assert.Equal(t, "tok", g.Generate())
}
