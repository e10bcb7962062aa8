package golden

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/effectcheck/effect"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func incrementThenLog(ctx context.Context, s *effect.Store, _ any) (any, error) {
	if _, err := s.Commit("increment"); err != nil {
		return nil, err
	}
	if _, err := s.Dispatch("console", map[string]any{"msg": "hello"}, map[string]any{"root": true}); err != nil {
		return nil, err
	}
	return map[string]any{"count": 1}, nil
}

var incrementExpectations = []effect.Expectation{
	effect.Expect(effect.Mutation("increment")),
	effect.Expect(effect.Dispatch("console", map[string]any{"msg": "hello"})),
}

func TestAssert_IncrementThenLog(t *testing.T) {
	ev, err := effect.Evaluate(context.Background(), incrementThenLog, incrementExpectations, nil, nil,
		effect.WithActionName("counter.increment"), effect.WithLogger(discardLogger()))
	require.NoError(t, err)

	require.NoError(t, Assert(t, "increment_then_log", ev))
}

func TestAssertAction_NoEffects(t *testing.T) {
	noop := func(ctx context.Context, s *effect.Store, payload any) (any, error) {
		return nil, nil
	}

	err := AssertAction(t, "no_effects", noop, nil, nil, nil,
		effect.WithActionName("noop"), effect.WithLogger(discardLogger()))
	require.NoError(t, err)
}

func TestAssertAction_EvaluationError(t *testing.T) {
	err := AssertAction(t, "unused", incrementThenLog, incrementExpectations[:1], nil, nil,
		effect.WithLogger(discardLogger()))
	assert.True(t, effect.IsCode(err, effect.ErrCodeTriggerCountMismatch))
}

func TestSnapshot_IgnoresRunID(t *testing.T) {
	a := &effect.Evaluation{RunID: "one", Action: "x"}
	b := &effect.Evaluation{RunID: "two", Action: "x"}

	sa, err := Snapshot(a)
	require.NoError(t, err)
	sb, err := Snapshot(b)
	require.NoError(t, err)

	assert.Equal(t, string(sa), string(sb))
	assert.Equal(t, `{"action":"x","checks":[],"result":null}`, string(sa))
}

func TestSnapshot_UnencodableResult(t *testing.T) {
	_, err := Snapshot(&effect.Evaluation{Action: "x", Result: func() {}})
	assert.Error(t, err)
}
