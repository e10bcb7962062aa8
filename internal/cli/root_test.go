package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "effectcheck", cmd.Use)
	assert.Contains(t, cmd.Long, "EFFECTCHECK_JOURNAL")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"validate", "trace", "replay"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "command %s should exist", name)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	unsetEnv(t, "EFFECTCHECK_FORMAT", "EFFECTCHECK_VERBOSE")

	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestGlobalFlags_EnvDefaults(t *testing.T) {
	t.Setenv("EFFECTCHECK_FORMAT", "json")
	t.Setenv("EFFECTCHECK_VERBOSE", "true")

	cmd := NewRootCommand()
	assert.Equal(t, "json", cmd.PersistentFlags().Lookup("format").DefValue)
	assert.Equal(t, "true", cmd.PersistentFlags().Lookup("verbose").DefValue)
}

func TestLoadEnv(t *testing.T) {
	unsetEnv(t, "EFFECTCHECK_FORMAT", "EFFECTCHECK_VERBOSE")
	t.Setenv("EFFECTCHECK_JOURNAL", "/tmp/runs.db")

	e, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "text", e.Format)
	assert.Equal(t, "/tmp/runs.db", e.Journal)
	assert.False(t, e.Verbose)
}

func TestLoadEnv_InvalidBool(t *testing.T) {
	t.Setenv("EFFECTCHECK_VERBOSE", "sometimes")

	_, err := LoadEnv()
	assert.Error(t, err)

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"validate", "testdata/scenarios"})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "yaml", "validate", "testdata/scenarios"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// unsetEnv removes keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}
