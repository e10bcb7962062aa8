package effect

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Action is the unit of business logic under test. It may emit effects through
// s.Commit and s.Dispatch, from any goroutine it controls, as long as it waits
// for them before returning.
type Action func(ctx context.Context, s *Store, payload any) (any, error)

// Evaluation is the outcome of running an action: the ordered checks and the
// action's own return value.
type Evaluation struct {
	RunID  string
	Action string
	Checks []Check
	Result any
}

// Evaluate validates expectations, runs action against an instrumented copy of
// collab and returns one check per emitted effect.
//
// Configuration errors are returned before the action runs. After the run, an
// action error or panic is ACTION_EXECUTION_FAILED, a malformed emission is
// INTERCEPTOR_CONSTRUCTION_FAILED and a wrong number of effects is
// TRIGGER_COUNT_MISMATCH. Comparators are not invoked; see Report.
//
// A nil collab is replaced by an empty collaborator.
func Evaluate(
	ctx context.Context,
	action Action,
	expectations []Expectation,
	payload any,
	collab *Collaborator,
	opts ...Option,
) (*Evaluation, error) {
	ev, err := evaluate(ctx, newConfig(opts), action, expectations, payload, collab)
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// evaluate returns the partial evaluation alongside execution and post-run
// errors so that Verify can still record what happened.
func evaluate(
	ctx context.Context,
	cfg *config,
	action Action,
	expectations []Expectation,
	payload any,
	collab *Collaborator,
) (*Evaluation, error) {
	name := cfg.nameOf(action)

	if err := validateExpectations(expectations); err != nil {
		return nil, stampAction(err, name)
	}
	if action == nil {
		err := newError(ErrCodeActionExecutionFailed, "action is nil")
		err.Action = name
		return nil, err
	}
	if collab == nil {
		collab = NewCollaborator()
	}

	ev := &Evaluation{
		RunID:  cfg.runIDs.Generate(),
		Action: name,
	}
	ic := newInterceptor(ev.RunID, expectations, collab, cfg.logger)

	result, runErr := invoke(ctx, action, augment(collab, ic), payload)
	checks, emitErr := ic.result()
	ev.Checks = checks
	ev.Result = result

	// A malformed emission is reported as such even when the action passed the
	// error up or dropped it.
	if emitErr != nil && IsCode(emitErr, ErrCodeInterceptorConstructionFailed) {
		return ev, stampAction(emitErr, name)
	}
	if runErr != nil {
		err := newError(ErrCodeActionExecutionFailed,
			"action %s failed; this could be an error in the action code or in a callback supplied by the test", name)
		err.Action = name
		err.Err = runErr
		return ev, err
	}
	if emitErr != nil {
		return ev, stampAction(emitErr, name)
	}

	if err := countMismatch(name, checks, expectations); err != nil {
		return ev, err
	}

	cfg.logger.Debug("action evaluated",
		"run_id", ev.RunID,
		"action", name,
		"checks", len(checks),
	)
	return ev, nil
}

// invoke runs the action, converting a panic into an error.
func invoke(ctx context.Context, action Action, s *Store, payload any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return action(ctx, s, payload)
}

// countMismatch returns TRIGGER_COUNT_MISMATCH unless there is exactly one
// check per expectation. For overflow the first undeclared effect is attached.
func countMismatch(name string, checks []Check, expectations []Expectation) error {
	if len(checks) == len(expectations) {
		return nil
	}
	err := newError(ErrCodeTriggerCountMismatch,
		"%s triggered the wrong number of effects: expected %d, received %d",
		name, len(expectations), len(checks))
	err.Action = name
	err.ExpectedCount = len(expectations)
	err.ReceivedCount = len(checks)
	if len(checks) > len(expectations) {
		first := checks[len(expectations)].Received
		err.Index = len(expectations)
		err.Received = &first
	}
	return err
}

func stampAction(err error, name string) error {
	if e, ok := err.(*Error); ok && e.Action == "" {
		e.Action = name
	}
	return err
}
