package effect

// Callback runs synchronously when the expectation it belongs to is matched
// against an emitted effect. It receives the live collaborator, so it can
// apply the real mutation handler before the action continues. Its return
// values become the return values of the action's Commit or Dispatch call.
type Callback func(received, expected Trigger, store *Collaborator) (any, error)

// Expectation is a declared trigger plus an optional comparator override and
// an optional post-match callback.
type Expectation struct {
	Trigger    Trigger
	Comparator Comparator
	Callback   Callback
}

// Expect returns an expectation for t with no overrides.
func Expect(t Trigger) Expectation {
	return Expectation{Trigger: t}
}

// Using returns a copy of e with its comparator set to c.
func (e Expectation) Using(c Comparator) Expectation {
	e.Comparator = c
	return e
}

// Then returns a copy of e with its callback set to cb.
func (e Expectation) Then(cb Callback) Expectation {
	e.Callback = cb
	return e
}

// validateExpectations checks every expectation before the action runs.
func validateExpectations(expectations []Expectation) error {
	for i, e := range expectations {
		if e.Trigger.IsZero() {
			err := newError(ErrCodeEmptyTriggerInput,
				"no trigger present in expectation (did you put the trigger fields directly on the expectation?)")
			err.Index = i
			return err
		}
		if err := e.Trigger.validate(); err != nil {
			return withIndex(err, i)
		}
	}
	return nil
}
