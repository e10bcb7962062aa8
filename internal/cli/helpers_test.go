package cli

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/effectcheck/effect"
	"github.com/roach88/effectcheck/internal/testutil"
	"github.com/roach88/effectcheck/journal"
)

func incrementThenLog(ctx context.Context, s *effect.Store, _ any) (any, error) {
	if _, err := s.Commit("increment"); err != nil {
		return nil, err
	}
	if _, err := s.Dispatch("console", map[string]any{"msg": "hello"}); err != nil {
		return nil, err
	}
	return 1, nil
}

// setupJournal records two runs of counter.increment, run-1 passing and
// run-2 failing, and returns the journal path.
func setupJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()

	opts := []effect.Option{
		effect.WithRecorder(j),
		effect.WithActionName("counter.increment"),
		effect.WithRunIDGenerator(testutil.NewFixedRunIDs("run")),
		effect.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}

	_, err = effect.Verify(context.Background(), incrementThenLog, []effect.Expectation{
		effect.Expect(effect.Mutation("increment")),
		effect.Expect(effect.Dispatch("console", map[string]any{"msg": "hello"})),
	}, nil, nil, opts...)
	require.NoError(t, err)

	_, err = effect.Verify(context.Background(), incrementThenLog, []effect.Expectation{
		effect.Expect(effect.Dispatch("console")),
		effect.Expect(effect.Mutation("increment")),
	}, nil, nil, opts...)
	require.Error(t, err)

	return path
}
