// Package golden compares effect evaluations against golden files.
//
// Snapshots are canonical JSON of the action name, every check's expected and
// received trigger, and the action's result. Run IDs are left out, so
// snapshots are stable across runs.
//
// To regenerate golden files, run:
//
//	go test ./... -update
package golden

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/effectcheck/effect"
	"github.com/roach88/effectcheck/internal/canonical"
)

// FixtureDir is where golden files are stored, relative to the test's package.
const FixtureDir = "testdata/golden"

// Snapshot renders ev as canonical JSON.
func Snapshot(ev *effect.Evaluation) ([]byte, error) {
	checks := make([]any, len(ev.Checks))
	for i, c := range ev.Checks {
		checks[i] = map[string]any{
			"index":    c.Index,
			"expected": c.Expected.Document(),
			"received": c.Received.Document(),
		}
	}
	return canonical.Marshal(map[string]any{
		"action": ev.Action,
		"checks": checks,
		"result": ev.Result,
	})
}

// Assert compares the snapshot of ev against testdata/golden/{name}.golden.
// Returns an error if ev cannot be snapshotted; a mismatch fails t.
func Assert(t *testing.T, name string, ev *effect.Evaluation) error {
	t.Helper()

	data, err := Snapshot(ev)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(FixtureDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

// AssertAction evaluates action and compares the evaluation against a golden
// file. Comparators are not run: the golden file is the expectation for
// payloads, while expectations still fix the number and order of effects.
func AssertAction(
	t *testing.T,
	name string,
	action effect.Action,
	expectations []effect.Expectation,
	payload any,
	collab *effect.Collaborator,
	opts ...effect.Option,
) error {
	t.Helper()

	ev, err := effect.Evaluate(context.Background(), action, expectations, payload, collab, opts...)
	if err != nil {
		return err
	}
	return Assert(t, name, ev)
}
