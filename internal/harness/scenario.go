package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a YAML-defined test: a sequence of operations against named
// entities, per-step expectations, and final assertions on the journal and
// durable state.
type Scenario struct {
	// Name uniquely identifies the scenario; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario pins down.
	Description string `yaml:"description"`

	// TokenPrefix seeds the sequential token generator. Empty uses the
	// testutil default, which keeps golden files stable.
	TokenPrefix string `yaml:"token_prefix,omitempty"`

	// Steps run in order, each awaited before the next unless marked
	// concurrent.
	Steps []Step `yaml:"steps"`

	// Assertions validate the journal and final state after all steps.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation submission.
type Step struct {
	// Entity is the target identity as "kind/key".
	Entity string `yaml:"entity"`

	// Op is the operation name.
	Op string `yaml:"op"`

	// Content is the operation payload; omitted means no content. YAML
	// values convert to runtime values (floats and nulls are rejected).
	Content any `yaml:"content,omitempty"`

	// Concurrent submits this step without awaiting the previous one.
	// Consecutive concurrent steps land in flight together; the next
	// non-concurrent step awaits them all.
	Concurrent bool `yaml:"concurrent,omitempty"`

	// Expect validates the step's outcome. Nil means the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is a per-step expectation.
type Expect struct {
	// Outcome is "ok" or "error". Empty defaults to "ok".
	Outcome string `yaml:"outcome,omitempty"`

	// Result is the expected operation result, compared for observable
	// equality. Only checked when present.
	Result any `yaml:"result,omitempty"`

	// ErrorCode is the expected failure code, e.g. "PRECONDITION".
	ErrorCode string `yaml:"error_code,omitempty"`
}

// Assertion validates the run after all steps complete.
type Assertion struct {
	// Type is one of journal_contains, journal_order, journal_count,
	// final_state.
	Type string `yaml:"type"`

	// Entity scopes the assertion to one identity ("kind/key"). Required
	// for journal_count and final_state, optional for the others.
	Entity string `yaml:"entity,omitempty"`

	// Op is the operation name (journal_contains).
	Op string `yaml:"op,omitempty"`

	// Outcome is the expected journal outcome (journal_contains).
	Outcome string `yaml:"outcome,omitempty"`

	// Ops is the expected relative order of operations (journal_order).
	Ops []string `yaml:"ops,omitempty"`

	// Count is the expected number of journal rows (journal_count).
	Count int `yaml:"count,omitempty"`

	// Value is the expected durable state (final_state). Only meaningful
	// for storage-backed kinds; absent means the key must not exist.
	Value any `yaml:"value,omitempty"`

	// Absent asserts the entity has no durable state (final_state).
	Absent bool `yaml:"absent,omitempty"`
}

// Assertion type names.
const (
	AssertJournalContains = "journal_contains"
	AssertJournalOrder    = "journal_order"
	AssertJournalCount    = "journal_count"
	AssertFinalState      = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so a typo fails loudly instead of silently skipping a check.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Entity == "" {
			return fmt.Errorf("steps[%d]: entity is required", i)
		}
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if step.Expect != nil {
			switch step.Expect.Outcome {
			case "", "ok", "error":
			default:
				return fmt.Errorf("steps[%d].expect: outcome must be ok or error, got %q", i, step.Expect.Outcome)
			}
			if step.Expect.ErrorCode != "" && step.Expect.Outcome == "ok" {
				return fmt.Errorf("steps[%d].expect: error_code requires outcome error", i)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(i int, a *Assertion) error {
	switch a.Type {
	case AssertJournalContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for journal_contains", i)
		}
	case AssertJournalOrder:
		if len(a.Ops) < 2 {
			return fmt.Errorf("assertions[%d]: journal_order needs at least two ops", i)
		}
	case AssertJournalCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", i)
		}
	case AssertFinalState:
		if a.Entity == "" {
			return fmt.Errorf("assertions[%d]: entity is required for final_state", i)
		}
		if a.Value == nil && !a.Absent {
			return fmt.Errorf("assertions[%d]: final_state needs value or absent", i)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}
