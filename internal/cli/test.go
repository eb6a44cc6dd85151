package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stately/internal/harness"
)

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenario.yaml|dir> [...]",
		Short: "Run scenario files",
		Long: `Run one or more scenario YAML files against a fresh in-memory runtime.

Each scenario runs isolated with a deterministic clock and sequential
correlation tokens. Directories are searched for *.yaml files.

Example:
  stately test scenarios/
  stately test scenarios/counter-arithmetic.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(rootOpts, args, cmd)
		},
	}

	return cmd
}

// testSummary is the JSON payload of a test run.
type testSummary struct {
	Total    int            `json:"total"`
	Passed   int            `json:"passed"`
	Failed   int            `json:"failed"`
	Failures []scenarioFail `json:"failures,omitempty"`
}

type scenarioFail struct {
	Scenario string   `json:"scenario"`
	Path     string   `json:"path"`
	Errors   []string `json:"errors"`
}

func runTest(opts *RootOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	paths, err := collectScenarioPaths(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "collect scenarios", err)
	}
	if len(paths) == 0 {
		return NewExitError(ExitCommandError, "no scenario files found")
	}

	summary := testSummary{Total: len(paths)}
	for _, path := range paths {
		sc, err := harness.LoadScenario(path)
		if err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, scenarioFail{
				Path: path, Errors: []string{err.Error()},
			})
			continue
		}

		f.VerboseLog("running %s (%s)", sc.Name, path)
		result, err := harness.Run(sc)
		if err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, scenarioFail{
				Scenario: sc.Name, Path: path, Errors: []string{err.Error()},
			})
			continue
		}
		if result.Pass {
			summary.Passed++
			if f.Format == "text" {
				fmt.Fprintf(f.Writer, "PASS %s\n", sc.Name)
			}
			continue
		}
		summary.Failed++
		summary.Failures = append(summary.Failures, scenarioFail{
			Scenario: sc.Name, Path: path, Errors: result.Errors,
		})
		if f.Format == "text" {
			fmt.Fprintf(f.Writer, "FAIL %s\n", sc.Name)
			for _, msg := range result.Errors {
				fmt.Fprintf(f.Writer, "     %s\n", msg)
			}
		}
	}

	if f.Format == "json" {
		if err := f.Success(summary); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(f.Writer, "\n%d scenario(s): %d passed, %d failed\n",
			summary.Total, summary.Passed, summary.Failed)
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}
	return nil
}

// collectScenarioPaths expands file and directory arguments into a sorted
// list of YAML files.
func collectScenarioPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
				paths = append(paths, filepath.Join(arg, name))
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}
