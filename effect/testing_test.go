package effect

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertAction(t *testing.T) {
	collab := NewCollaborator()
	collab.State["count"] = 1

	double := func(ctx context.Context, s *Store, payload any) (any, error) {
		n := s.State["count"].(int) * payload.(int)
		if _, err := s.Commit("set", n); err != nil {
			return nil, err
		}
		return n, nil
	}

	result := AssertAction(t, double, []Expectation{
		Expect(Mutation("set", 2)),
	}, 2, collab, WithLogger(discardLogger()))

	assert.Equal(t, 2, result)
}

func TestUUIDv7Generator_Default(t *testing.T) {
	ev, err := Evaluate(context.Background(), incrementOnly,
		[]Expectation{Expect(Mutation("increment"))}, nil, nil, WithLogger(discardLogger()))
	require.NoError(t, err)

	parsed, err := uuid.Parse(ev.RunID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestNameOf_Cached(t *testing.T) {
	cfg := newConfig(nil)
	first := cfg.nameOf(incrementThenLog)
	assert.Equal(t, "effect.incrementThenLog", first)
	assert.Equal(t, first, cfg.nameOf(incrementThenLog))
	assert.Equal(t, "<nil>", cfg.nameOf(nil))
}
