// Package effect verifies that an action emits an expected, ordered sequence
// of effects against a store, and returns the expected result.
//
// An action receives a *Store whose Commit and Dispatch methods are
// instrumented. Every call becomes a received Trigger and is paired, strictly
// by position, with the next declared Expectation: the first emitted effect is
// checked against the first expectation, the second against the second, and
// so on. No reordering or name-based correlation takes place.
//
// # Running
//
// Verify is the usual entry point:
//
//	increment := func(ctx context.Context, s *effect.Store, _ any) (any, error) {
//	    if _, err := s.Commit("increment"); err != nil {
//	        return nil, err
//	    }
//	    _, err := s.Dispatch("console", map[string]any{"msg": "hello"})
//	    return nil, err
//	}
//
//	_, err := effect.Verify(ctx, increment, []effect.Expectation{
//	    effect.Expect(effect.Mutation("increment")),
//	    effect.Expect(effect.Dispatch("console", map[string]any{"msg": "hello"})),
//	}, nil, effect.NewCollaborator())
//
// Verify is Evaluate (run the action, collect checks, enforce the effect
// count) followed by Report (run comparators over the checks).
//
// # Payload wildcards
//
// An expectation built without a payload (effect.Mutation("increment")) does
// not constrain the received payload at all, including nil. Declaring a payload,
// even nil, makes it part of the comparison. Payloads may be gomega matchers or
// *regexp.Regexp values, which are matched instead of compared.
//
// # Comparators
//
// The comparator for each check is resolved in priority order: the
// expectation's own, the run-level one (WithComparator), then the process
// default (SetDefaultComparator, Strict unless replaced). Strict fails on the
// first divergence; Permissive logs and passes; Normalized compares payloads by
// canonical JSON.
//
// # Callbacks
//
// An expectation's Callback runs synchronously when the expectation is
// matched, before Commit or Dispatch returns, and its return values are what the
// action receives. Callbacks get the live collaborator, so they can apply the
// real mutation and let the action read the new state back.
//
// # Errors
//
// Every failure is an *Error with a Code. Configuration errors are raised
// before the action runs; execution, count and comparison errors after. Use
// IsCode or CodeOf rather than matching messages.
package effect
