package effect

// Replay checks triggers recorded by an earlier run against expectations,
// as if an action had just emitted them: positional pairing, the count check,
// then comparators. Comparators receive an empty Snapshot, since recorded runs
// carry no collaborator state.
//
// Name the action with WithActionName; there is no action to take a symbol
// from.
func Replay(received []Trigger, expectations []Expectation, opts ...Option) error {
	cfg := newConfig(opts)
	name := cfg.actionName
	if name == "" {
		name = "<replay>"
	}

	if err := validateExpectations(expectations); err != nil {
		return stampAction(err, name)
	}

	checks := make([]Check, len(received))
	for i, r := range received {
		e := Expectation{Trigger: unexpected()}
		if i < len(expectations) {
			e = expectations[i]
		}
		checks[i] = Check{
			Index:      i,
			Received:   r,
			Expected:   e.Trigger,
			Comparator: e.Comparator,
		}
	}

	if err := countMismatch(name, checks, expectations); err != nil {
		return err
	}
	_, err := report(cfg, name, checks, nil)
	return err
}
