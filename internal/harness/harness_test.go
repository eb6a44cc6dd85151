package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	sc, err := LoadScenario(filepath.Join("testdata", "scenarios", name))
	require.NoError(t, err)
	return sc
}

func TestScenarioCounterArithmetic(t *testing.T) {
	sc := loadTestScenario(t, "counter-arithmetic.yaml")
	result, err := Run(sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, 4)
}

func TestScenarioStrictStringStore(t *testing.T) {
	sc := loadTestScenario(t, "strict-stringstore.yaml")
	result, err := Run(sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 3)
	assert.Equal(t, "destruct", result.Trace[0].Outcome)
	assert.Contains(t, result.Trace[0].Error, "PRECONDITION")
	assert.Equal(t, "ok", result.Trace[2].Outcome)
}

func TestScenarioPhonebookLookup(t *testing.T) {
	sc := loadTestScenario(t, "phonebook-lookup.yaml")
	result, err := Run(sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestScenarioTextstoreAppend(t *testing.T) {
	sc := loadTestScenario(t, "textstore-append.yaml")
	result, err := Run(sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunRepeatsDeterministically(t *testing.T) {
	sc := loadTestScenario(t, "counter-arithmetic.yaml")

	first, err := Run(sc)
	require.NoError(t, err)
	second, err := Run(sc)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace, "same scenario must produce an identical journal")
}

func TestFailedExpectationReported(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: wrong-expect
description: A deliberately wrong expectation fails the run.
steps:
  - entity: counter/x
    op: increment
    expect:
      result: 99
`))
	require.NoError(t, err)

	result, err := Run(sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "result mismatch")
}

func TestExpectedFailureThatSucceedsReported(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: wrong-outcome
description: Expecting an error from a succeeding op fails the run.
steps:
  - entity: counter/x
    op: increment
    expect:
      outcome: error
      error_code: PRECONDITION
`))
	require.NoError(t, err)

	result, err := Run(sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected failure")
}
