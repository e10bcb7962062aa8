package scenario

import (
	"context"
	"fmt"

	"github.com/roach88/effectcheck/effect"
	"github.com/roach88/effectcheck/internal/canonical"
)

// ResultMismatchError is returned when every effect matched but the action
// returned something other than the scenario's declared result.
type ResultMismatchError struct {
	Scenario string
	Expected any
	Actual   any
}

// Error implements the error interface.
func (e *ResultMismatchError) Error() string {
	expected, _ := canonical.Marshal(e.Expected)
	actual, _ := canonical.Marshal(e.Actual)
	return fmt.Sprintf("scenario %q: result not as expected\n  Expected: %s\n  Actual: %s",
		e.Scenario, expected, actual)
}

// Run verifies action against s and returns the action's result.
//
// The action is named after s.Action and uses the scenario's comparator as
// the run-level one; opts are applied after both and may override them.
func Run(ctx context.Context, s *Scenario, action effect.Action, opts ...effect.Option) (any, error) {
	expectations, err := s.Expectations()
	if err != nil {
		return nil, err
	}
	cmp, err := s.RunComparator()
	if err != nil {
		return nil, err
	}

	all := []effect.Option{effect.WithActionName(s.Action)}
	if cmp != nil {
		all = append(all, effect.WithComparator(cmp))
	}
	all = append(all, opts...)

	result, err := effect.Verify(ctx, action, expectations, s.Payload, s.Collaborator(), all...)
	if err != nil {
		return nil, err
	}

	if s.hasResult {
		eq, err := canonical.Equal(s.Result, result)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: compare result: %w", s.Name, err)
		}
		if !eq {
			return nil, &ResultMismatchError{Scenario: s.Name, Expected: s.Result, Actual: result}
		}
	}
	return result, nil
}

// Summary contains the results of running a directory of scenarios.
type Summary struct {
	Total    int       `json:"total"`
	Passed   int       `json:"passed"`
	Failed   int       `json:"failed"`
	Skipped  int       `json:"skipped"`
	Failures []Failure `json:"failures,omitempty"`
}

// Failure describes one scenario that did not pass.
type Failure struct {
	Scenario string `json:"scenario,omitempty"`
	Path     string `json:"path"`
	Error    string `json:"error"`
}

// OK reports whether no scenario failed.
func (s *Summary) OK() bool { return s.Failed == 0 }

// RunAll loads and runs every scenario under dir. actions maps each
// scenario's action key to the action to run. Files that fail to load, and
// scenarios whose action is not registered, count as failures; scenarios with
// a skip reason are skipped.
//
// The returned error is non-nil only when dir cannot be scanned.
func RunAll(ctx context.Context, dir string, actions map[string]effect.Action, opts ...effect.Option) (*Summary, error) {
	paths, err := FindFiles(dir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, path := range paths {
		summary.Total++

		s, err := Load(path)
		if err != nil {
			summary.fail("", path, fmt.Errorf("failed to load scenario: %w", err))
			continue
		}
		if s.Skip != "" {
			summary.Skipped++
			continue
		}

		action, ok := actions[s.Action]
		if !ok {
			summary.fail(s.Name, path, fmt.Errorf("no action registered as %q", s.Action))
			continue
		}

		if _, err := Run(ctx, s, action, opts...); err != nil {
			summary.fail(s.Name, path, err)
			continue
		}
		summary.Passed++
	}
	return summary, nil
}

func (s *Summary) fail(name, path string, err error) {
	s.Failed++
	s.Failures = append(s.Failures, Failure{
		Scenario: name,
		Path:     path,
		Error:    err.Error(),
	})
}
