package effect

import (
	"errors"
	"log/slog"
	"sync"
)

// Check is one (received, expected) pair recorded during a run.
type Check struct {
	// Index is the emission position, starting at 0.
	Index int

	Received Trigger
	Expected Trigger

	// Comparator is the matched expectation's override, if any.
	Comparator Comparator

	// Snapshot is the collaborator as it was when the effect was emitted.
	Snapshot Snapshot
}

// interceptor records the effects of one run. Emissions are serialized by mu;
// callbacks run outside the lock.
type interceptor struct {
	mu           sync.Mutex
	runID        string
	expectations []Expectation
	collab       *Collaborator
	logger       *slog.Logger

	cursor int
	checks []Check

	// failure is the first construction or callback error, kept so a run fails
	// even when the action drops the error Commit/Dispatch returned.
	failure error
}

func newInterceptor(runID string, expectations []Expectation, collab *Collaborator, logger *slog.Logger) *interceptor {
	return &interceptor{
		runID:        runID,
		expectations: expectations,
		collab:       collab,
		logger:       logger,
		checks:       []Check{},
	}
}

func (ic *interceptor) emit(kind Kind, name string, args []any) (any, error) {
	if ic == nil {
		return nil, errors.New("effect: store was not created by Evaluate")
	}

	// An emission with no payload argument records a nil payload.
	received, err := fromArgs(kind, name, args, nil)
	if err != nil {
		wrapped := newError(ErrCodeInterceptorConstructionFailed,
			"could not record %s %q; check the arguments passed to Commit or Dispatch in the action", kind, name)
		wrapped.Err = err

		ic.mu.Lock()
		wrapped.Index = ic.cursor
		if ic.failure == nil {
			ic.failure = wrapped
		}
		ic.mu.Unlock()
		return nil, wrapped
	}

	ic.mu.Lock()
	index := ic.cursor
	var expected Expectation
	if index < len(ic.expectations) {
		expected = ic.expectations[index]
	} else {
		expected = Expectation{Trigger: unexpected()}
	}
	ic.cursor++

	ic.checks = append(ic.checks, Check{
		Index:      index,
		Received:   received,
		Expected:   expected.Trigger,
		Comparator: expected.Comparator,
		Snapshot:   ic.collab.snapshot(),
	})
	ic.mu.Unlock()

	ic.logger.Debug("effect emitted",
		"run_id", ic.runID,
		"index", index,
		"kind", kind,
		"name", name,
		"declared", !expected.Trigger.IsUnset(),
	)

	if expected.Callback == nil {
		return nil, nil
	}

	out, err := expected.Callback(received, expected.Trigger, ic.collab)
	if err != nil {
		ic.mu.Lock()
		if ic.failure == nil {
			wrapped := newError(ErrCodeActionExecutionFailed, "callback for expectation %d failed", index)
			wrapped.Index = index
			wrapped.Err = err
			ic.failure = wrapped
		}
		ic.mu.Unlock()
	}
	return out, err
}

// result returns the recorded checks and the first remembered failure.
func (ic *interceptor) result() ([]Check, error) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	checks := make([]Check, len(ic.checks))
	copy(checks, ic.checks)
	return checks, ic.failure
}
