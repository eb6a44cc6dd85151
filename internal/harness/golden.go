package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden-file form of a scenario run.
type TraceSnapshot struct {
	Scenario string       `json:"scenario"`
	Trace    []TraceEvent `json:"trace"`
}

// RunWithGolden executes a scenario and compares its journal trace against
// testdata/golden/{scenario.Name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(sc)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, sc.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against the named
// golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{Scenario: name, Trace: result.Trace}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode trace snapshot: %w", err)
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
