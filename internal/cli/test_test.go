package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: cli-counter
description: Counter arithmetic through the CLI test runner.
steps:
  - entity: counter/c
    op: increment
  - entity: counter/c
    op: get
    expect:
      result: 1
`

const failingScenario = `name: cli-failing
description: A wrong expectation fails the run.
steps:
  - entity: counter/c
    op: increment
    expect:
      result: 42
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTestCommandPassingScenario(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "pass.yaml", passingScenario)

	out, err := execCLI(t, "test", path)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS cli-counter")
	assert.Contains(t, out, "1 passed, 0 failed")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pass.yaml", passingScenario)
	writeScenario(t, dir, "fail.yaml", failingScenario)

	out, err := execCLI(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "PASS cli-counter")
	assert.Contains(t, out, "FAIL cli-failing")
	assert.Contains(t, out, "1 passed, 1 failed")
}

func TestTestCommandMalformedScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\n")

	_, err := execCLI(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestTestCommandNoScenarios(t *testing.T) {
	_, err := execCLI(t, "test", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandJSONFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "pass.yaml", passingScenario)

	out, err := execCLI(t, "--format", "json", "test", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"passed": 1`)
	assert.Contains(t, out, `"failed": 0`)
}
