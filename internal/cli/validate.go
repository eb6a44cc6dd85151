package cli

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/stately/internal/harness"
)

// scenarioSchema is the CUE schema every scenario file must satisfy.
// Structural checks live here; semantic checks (entity syntax against the
// runtime, expectation consistency) live in the harness loader.
const scenarioSchema = `
#Expect: {
	outcome?:    "ok" | "error"
	result?:     _
	error_code?: string
}

#Step: {
	entity:      string & =~"^[^/]+/.+$"
	op:          string & !=""
	content?:    _
	concurrent?: bool
	expect?:     #Expect
}

#Assertion: {
	type:     "journal_contains" | "journal_order" | "journal_count" | "final_state"
	entity?:  string
	op?:      string
	outcome?: string
	ops?: [...string]
	count?: int & >=0
	value?:  _
	absent?: bool
}

#Scenario: {
	name:          string & !=""
	description:   string & !=""
	token_prefix?: string
	steps: [#Step, ...#Step]
	assertions?: [...#Assertion]
}
`

// ValidationIssue is one problem found in a scenario file.
type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationResult holds validation results across all files.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml|dir> [...]",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario YAML files against the scenario schema.

Checks structure with a CUE schema, then runs the harness loader for
semantic checks. Faster feedback than running the scenarios.

Example:
  stately validate scenarios/`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	paths, err := collectScenarioPaths(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "collect scenarios", err)
	}
	if len(paths) == 0 {
		return NewExitError(ExitCommandError, "no scenario files found")
	}

	cctx := cuecontext.New()
	schema := cctx.CompileString(scenarioSchema)
	if err := schema.Err(); err != nil {
		return WrapExitError(ExitCommandError, "compile scenario schema", err)
	}
	scenarioDef := schema.LookupPath(cue.ParsePath("#Scenario"))

	result := ValidationResult{Valid: true, Files: len(paths)}
	for _, path := range paths {
		f.VerboseLog("validating %s", path)
		for _, msg := range validateScenarioFile(cctx, scenarioDef, path) {
			result.Valid = false
			result.Issues = append(result.Issues, ValidationIssue{Path: path, Message: msg})
		}
	}

	if result.Valid {
		if f.Format == "json" {
			return f.Success(result)
		}
		fmt.Fprintf(f.Writer, "✓ %d scenario file(s) valid\n", result.Files)
		return nil
	}

	if f.Format == "json" {
		_ = f.Error("VALIDATION", fmt.Sprintf("%d issue(s) found", len(result.Issues)), result.Issues)
	} else {
		fmt.Fprintln(f.Writer, "✗ Validation failed")
		for _, issue := range result.Issues {
			fmt.Fprintf(f.Writer, "  %s: %s\n", issue.Path, issue.Message)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(result.Issues)))
}

// validateScenarioFile checks one file against the CUE schema and the
// harness loader, returning all issues found.
func validateScenarioFile(cctx *cue.Context, scenarioDef cue.Value, path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{err.Error()}
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("parse YAML: %v", err)}
	}

	var issues []string

	unified := scenarioDef.Unify(cctx.Encode(doc))
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		for _, e := range cueerrors.Errors(err) {
			issues = append(issues, e.Error())
		}
	}

	// Loader-level checks catch what the schema cannot express.
	if _, err := harness.ParseScenario(data); err != nil {
		issues = append(issues, err.Error())
	}

	return issues
}
