package effect

import (
	"context"
	"errors"
	"fmt"
)

// Report runs the comparator of every check in emission order and returns
// result unchanged if none fails. The first failing comparator stops
// reporting; its error is returned with the check index attached.
//
// The comparator for a check is, in priority order: the check's own
// (from its expectation), the run-level one from WithComparator, and
// DefaultComparator.
func Report(checks []Check, result any, opts ...Option) (any, error) {
	return report(newConfig(opts), "", checks, result)
}

func report(cfg *config, action string, checks []Check, result any) (any, error) {
	if action == "" {
		action = cfg.actionName
	}
	runLevel := cfg.runComparator()
	for _, c := range checks {
		c.Snapshot.logger = cfg.logger
		c.Snapshot.asserter = cfg.asserter
		cmp := resolveComparator(c, runLevel)
		if err := cmp(c.Received.Kind(), c.Received, c.Expected, c.Snapshot); err != nil {
			return nil, annotate(err, c.Index, action)
		}
	}
	return result, nil
}

// resolveComparator picks the comparator for c.
func resolveComparator(c Check, runLevel Comparator) Comparator {
	if c.Comparator != nil {
		return c.Comparator
	}
	if runLevel != nil {
		return runLevel
	}
	return DefaultComparator()
}

// annotate attaches the check index and action name to a comparator error.
func annotate(err error, index int, action string) error {
	var e *Error
	if errors.As(err, &e) {
		if e.Index < 0 {
			e.Index = index
		}
		if e.Action == "" {
			e.Action = action
		}
		return err
	}
	return fmt.Errorf("check %d: %w", index, err)
}

// Verify evaluates action and reports the resulting checks: the composition
// of Evaluate and Report. It returns the action's result when every effect
// matched.
//
// When a Recorder is configured, every run that got as far as invoking the
// action is recorded, passing or not. Recording failures are logged and do
// not change the outcome.
func Verify(
	ctx context.Context,
	action Action,
	expectations []Expectation,
	payload any,
	collab *Collaborator,
	opts ...Option,
) (any, error) {
	cfg := newConfig(opts)

	ev, err := evaluate(ctx, cfg, action, expectations, payload, collab)
	if ev == nil {
		return nil, err
	}

	result := ev.Result
	if err == nil {
		result, err = report(cfg, ev.Action, ev.Checks, ev.Result)
	}

	if cfg.recorder != nil {
		run := Run{
			ID:     ev.RunID,
			Action: ev.Action,
			Checks: ev.Checks,
			Result: ev.Result,
			Err:    err,
		}
		if recErr := cfg.recorder.Record(ctx, run); recErr != nil {
			cfg.logger.Warn("failed to record run",
				"run_id", ev.RunID,
				"action", ev.Action,
				"error", recErr,
			)
		}
	}

	if err != nil {
		return nil, err
	}
	return result, nil
}
