package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateAbsentEntity(t *testing.T) {
	db := tempDB(t)
	out, err := execCLI(t, "--db", db, "state", "textstore/none")
	require.NoError(t, err)
	assert.Contains(t, out, "absent")
}

func TestStateAfterInvoke(t *testing.T) {
	db := tempDB(t)
	_, err := execCLI(t, "--db", db, "invoke", "textstore/doc", "append", "--content", `"abc"`)
	require.NoError(t, err)

	out, err := execCLI(t, "--db", db, "state", "textstore/doc")
	require.NoError(t, err)
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "checksum")
}

func TestStateJSONFormat(t *testing.T) {
	db := tempDB(t)
	_, err := execCLI(t, "--db", db, "invoke", "textstore/doc", "append", "--content", `"x"`)
	require.NoError(t, err)

	out, err := execCLI(t, "--db", db, "--format", "json", "state", "textstore/doc")
	require.NoError(t, err)
	assert.Contains(t, out, `"exists": true`)

	out, err = execCLI(t, "--db", db, "--format", "json", "state", "textstore/missing")
	require.NoError(t, err)
	assert.Contains(t, out, `"exists": false`)
}

func TestStateInvalidEntity(t *testing.T) {
	db := tempDB(t)
	_, err := execCLI(t, "--db", db, "state", "noslash")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
