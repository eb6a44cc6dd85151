package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execCLI runs the root command with args and captures combined output.
func execCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"invoke", "state", "trace", "test", "validate"} {
		assert.Contains(t, names, want)
	}
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	_, err := execCLI(t, "--format", "xml", "trace", "--db", t.TempDir()+"/x.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "failed")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))

	wrapped := WrapExitError(ExitCommandError, "outer", assert.AnError)
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.Contains(t, wrapped.Error(), "outer")
	assert.ErrorIs(t, wrapped, assert.AnError)
}
