package scenario

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/effectcheck/effect"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func counterIncrement(ctx context.Context, s *effect.Store, _ any) (any, error) {
	if _, err := s.Commit("increment"); err != nil {
		return nil, err
	}
	_, err := s.Dispatch("console", map[string]any{"msg": "hello"})
	return nil, err
}

func counterAdd(ctx context.Context, s *effect.Store, payload any) (any, error) {
	amount := payload.(map[string]any)["amount"].(int)
	if _, err := s.Commit("add", map[string]any{"amount": amount}); err != nil {
		return nil, err
	}
	if _, err := s.Dispatch("console", map[string]any{"msg": "added"}, map[string]any{"root": true}); err != nil {
		return nil, err
	}
	return s.State["count"].(int) + amount, nil
}

var counterActions = map[string]effect.Action{
	"counter.increment": counterIncrement,
	"counter.add":       counterAdd,
	"counter.reset": func(ctx context.Context, s *effect.Store, _ any) (any, error) {
		return nil, errors.New("not implemented")
	},
}

func TestLoad_ValidScenario(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "runall", "counter_add.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "counter-add", s.Name)
	assert.Equal(t, "counter.add", s.Action)
	assert.Equal(t, map[string]any{"amount": 10}, s.Payload)
	assert.Equal(t, "normalized", s.Comparator)
	assert.Len(t, s.Expect, 2)
	assert.True(t, s.HasResult())
	assert.Equal(t, 15, s.Result)
	assert.Equal(t, filepath.Join("testdata", "runall", "counter_add.yaml"), s.Path)
}

func TestLoad_NoResultKey(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "runall", "increment.yaml"))
	require.NoError(t, err)
	assert.False(t, s.HasResult())
}

func TestParse_NullResultIsDeclared(t *testing.T) {
	s, err := Parse([]byte("name: n\naction: a\nexpect: []\nresult: null\n"))
	require.NoError(t, err)
	assert.True(t, s.HasResult())
	assert.Nil(t, s.Result)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		file     string
		contains string
	}{
		{"unknown_field.yaml", "field expectations not found"},
		{"unknown_expect_key.yaml", "paylod"},
		{"bad_kind.yaml", "kind"},
		{"bad_comparator.yaml", "comparator"},
		{"missing_action.yaml", "action"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := Load(filepath.Join("testdata", "invalid", tt.file))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoad_SchemaErrorHasPath(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "invalid", "bad_kind.yaml"))

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "expect.0.kind", se.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(nil)
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir(filepath.Join("testdata", "runall"))
	require.NoError(t, err)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"counter-add", "increment-and-log", "reset", "unregistered", "wrong-order"}, names)
}

func TestLoadDir_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	doc := []byte("name: same\naction: a\nexpect: []\n")
	require.NoError(t, writeFile(filepath.Join(dir, "a.yaml"), doc))
	require.NoError(t, writeFile(filepath.Join(dir, "b.yml"), doc))

	_, err := LoadDir(dir)
	assert.ErrorContains(t, err, `duplicate scenario name "same"`)
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeFile(filepath.Join(dir, "b.yaml"), nil))
	require.NoError(t, writeFile(filepath.Join(dir, "nested", "a.YML"), nil))
	require.NoError(t, writeFile(filepath.Join(dir, "notes.txt"), nil))

	files, err := FindFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "a.YML"),
	}, files)

	single, err := FindFiles(filepath.Join(dir, "b.yaml"))
	require.NoError(t, err)
	assert.Len(t, single, 1)
}

func TestScenario_Expectations(t *testing.T) {
	s, err := Parse([]byte(`
name: wildcard
action: a
expect:
  - kind: mutation
    name: increment
  - kind: mutation
    name: reset
    payload: null
  - kind: dispatch
    name: console
    comparator: permissive
`))
	require.NoError(t, err)

	exps, err := s.Expectations()
	require.NoError(t, err)
	require.Len(t, exps, 3)

	assert.False(t, exps[0].Trigger.HasPayload(), "absent payload is a wildcard")
	assert.True(t, exps[1].Trigger.HasPayload(), "explicit null is declared")
	assert.Nil(t, exps[0].Comparator)
	assert.NotNil(t, exps[2].Comparator)
}

func TestScenario_ExpectationsRejectMisplacedField(t *testing.T) {
	s := &Scenario{
		Name:   "callback",
		Action: "a",
		Expect: []map[string]any{{"kind": "mutation", "name": "increment", "callback": "apply"}},
	}

	_, err := s.Expectations()
	assert.True(t, effect.IsCode(err, effect.ErrCodeMisplacedExpectationField))
}

func TestScenario_CollaboratorIsFresh(t *testing.T) {
	s := &Scenario{State: map[string]any{"count": 1}}

	first := s.Collaborator()
	first.State["count"] = 99

	second := s.Collaborator()
	assert.Equal(t, 1, second.State["count"])
	assert.Equal(t, 1, s.State["count"])
	assert.NotNil(t, second.RootGetters)
}

func TestRun_PassesAndReturnsResult(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "runall", "counter_add.yaml"))
	require.NoError(t, err)

	result, err := Run(context.Background(), s, counterAdd, effect.WithLogger(discardLogger()))
	require.NoError(t, err)
	assert.Equal(t, 15, result)
}

func TestRun_ResultMismatch(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "runall", "counter_add.yaml"))
	require.NoError(t, err)
	s.Result = 16

	_, err = Run(context.Background(), s, counterAdd, effect.WithLogger(discardLogger()))

	var rm *ResultMismatchError
	require.ErrorAs(t, err, &rm)
	assert.Equal(t, 16, rm.Expected)
	assert.Equal(t, 15, rm.Actual)
	assert.Contains(t, err.Error(), "Expected: 16")
	assert.Contains(t, err.Error(), "Actual: 15")
}

func TestRun_EffectMismatchNamesAction(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "runall", "wrong_order.yaml"))
	require.NoError(t, err)

	_, err = Run(context.Background(), s, counterIncrement, effect.WithLogger(discardLogger()))

	var e *effect.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, effect.ErrCodeTriggerMismatch, e.Code)
	assert.Equal(t, "counter.increment", e.Action)
	assert.Equal(t, 0, e.Index)
}

func TestRun_OptionsOverrideScenarioComparator(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "runall", "wrong_order.yaml"))
	require.NoError(t, err)

	_, err = Run(context.Background(), s, counterIncrement,
		effect.WithComparator(effect.NewPermissive(discardLogger())),
		effect.WithLogger(discardLogger()))
	assert.NoError(t, err)
}

func TestRunAll(t *testing.T) {
	summary, err := RunAll(context.Background(), filepath.Join("testdata", "runall"), counterActions,
		effect.WithLogger(discardLogger()))
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 2, summary.Passed)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	assert.False(t, summary.OK())

	require.Len(t, summary.Failures, 2)
	assert.Equal(t, "unregistered", summary.Failures[0].Scenario)
	assert.Contains(t, summary.Failures[0].Error, `no action registered as "counter.missing"`)
	assert.Equal(t, "wrong-order", summary.Failures[1].Scenario)
	assert.Contains(t, summary.Failures[1].Error, "TRIGGER_MISMATCH")
}

func TestRunAll_CountsLoadFailures(t *testing.T) {
	summary, err := RunAll(context.Background(), filepath.Join("testdata", "invalid"), counterActions)
	require.NoError(t, err)

	assert.Equal(t, summary.Total, summary.Failed)
	for _, f := range summary.Failures {
		assert.Contains(t, f.Error, "failed to load scenario")
	}
}

func TestRunAll_MissingDir(t *testing.T) {
	_, err := RunAll(context.Background(), filepath.Join("testdata", "absent"), counterActions)
	assert.Error(t, err)
}
