package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplay_Matches(t *testing.T) {
	db := setupJournal(t)

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("testdata", "scenarios", "increment.yaml"), "--db", db, "--run", "run-1"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "✓ run run-1 matches increment-and-log\n", buf.String())
}

func TestReplay_FailedRunStillMatchesScenario(t *testing.T) {
	db := setupJournal(t)

	// run-2 failed against its own expectations, but emitted the same effects.
	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("testdata", "scenarios", "increment.yaml"), "--db", db, "--run", "run-2"})

	require.NoError(t, cmd.Execute())
}

func TestReplay_Mismatch(t *testing.T) {
	db := setupJournal(t)

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("testdata", "bye.yaml"), "--db", db, "--run", "run-1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.False(t, resp.Data.Matches)
	assert.Equal(t, "increment-and-say-bye", resp.Data.Scenario)
	assert.Equal(t, "TRIGGER_MISMATCH", resp.Data.Code)
}

func TestReplay_PermissiveComparator(t *testing.T) {
	db := setupJournal(t)

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join("testdata", "bye.yaml"), "--db", db, "--run", "run-1", "--comparator", "permissive"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ run run-1 matches increment-and-say-bye")
}

func TestReplay_UnknownComparator(t *testing.T) {
	db := setupJournal(t)

	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join("testdata", "bye.yaml"), "--db", db, "--run", "run-1", "--comparator", "fuzzy"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplay_RunNotFound(t *testing.T) {
	db := setupJournal(t)

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("testdata", "scenarios", "increment.yaml"), "--db", db, "--run", "run-99"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E002]")
}

func TestReplay_InvalidScenario(t *testing.T) {
	db := setupJournal(t)

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("testdata", "broken", "typo.yaml"), "--db", db, "--run", "run-1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E003]")
}

func TestReplay_RequiresRunFlag(t *testing.T) {
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join("testdata", "scenarios", "increment.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "run" not set`)
}

func TestReplay_MissingJournal(t *testing.T) {
	db := filepath.Join(t.TempDir(), "typo.db")

	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join("testdata", "scenarios", "increment.yaml"), "--db", db, "--run", "run-1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.NoFileExists(t, db)
}
