package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrace_ListRuns(t *testing.T) {
	db := setupJournal(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "✓ run-1 counter.increment\n")
	assert.Contains(t, out, "✗ run-2 counter.increment [TRIGGER_MISMATCH]\n")
	assert.Contains(t, out, "2 run(s): 1 passed, 1 failed")
}

func TestTrace_FilterByAction(t *testing.T) {
	db := setupJournal(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "--action", "counter.reset"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "No runs recorded\n", buf.String())
}

func TestTrace_JSONList(t *testing.T) {
	db := setupJournal(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string    `json:"status"`
		Data   TraceList `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, TraceStats{Runs: 2, Passed: 1, Failed: 1}, resp.Data.Stats)
	require.Len(t, resp.Data.Runs, 2)
	assert.Equal(t, "run-1", resp.Data.Runs[0].ID)
}

func TestTrace_ShowRun(t *testing.T) {
	db := setupJournal(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "--run", "run-1"})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "Run run-1 (counter.increment) passed\n")
	assert.Contains(t, out, "Result: 1\n")
	assert.Contains(t, out, "[0] mutation increment")
	assert.Contains(t, out, `[1] dispatch console {"msg":"hello"}`)
	assert.Contains(t, out, `expected dispatch console {"msg":"hello"}`)
	assert.NotContains(t, out, "Error:")
}

func TestTrace_ShowFailedRun(t *testing.T) {
	db := setupJournal(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "--run", "run-2"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Run run-2 (counter.increment) failed\n")
	assert.Contains(t, buf.String(), "Error: ")
}

func TestTrace_RunNotFound(t *testing.T) {
	db := setupJournal(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "--run", "run-99"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestTrace_RequiresJournal(t *testing.T) {
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "EFFECTCHECK_JOURNAL")
}

func TestTrace_JournalFromRootOptions(t *testing.T) {
	db := setupJournal(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text", Journal: db})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "2 run(s)")
}

func TestTrace_MissingJournalNotCreated(t *testing.T) {
	db := filepath.Join(t.TempDir(), "typo.db")

	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", db})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "journal not found")
	assert.NoFileExists(t, db)
}
