package effect

import (
	"log/slog"
	"maps"
)

// Collaborator is the store-like object an action operates against. Only the
// effect-emitting entry points are instrumented; every field is passed through
// to the action as is.
type Collaborator struct {
	State       map[string]any
	Getters     map[string]any
	RootState   map[string]any
	RootGetters map[string]any

	// Extras carries any additional fields the action reads.
	Extras map[string]any
}

// NewCollaborator returns a collaborator with empty, non-nil maps.
func NewCollaborator() *Collaborator {
	return &Collaborator{
		State:       map[string]any{},
		Getters:     map[string]any{},
		RootState:   map[string]any{},
		RootGetters: map[string]any{},
		Extras:      map[string]any{},
	}
}

// Snapshot is a copy of a collaborator taken when an effect is emitted. State
// and RootState are copied one level deep; nested values and the remaining
// maps are shared with the live collaborator.
type Snapshot struct {
	State       map[string]any
	Getters     map[string]any
	RootState   map[string]any
	RootGetters map[string]any
	Extras      map[string]any

	// Set by Report from the run's options.
	logger   *slog.Logger
	asserter Asserter
}

// runLogger returns the logger of the run being reported, or slog.Default.
func (s Snapshot) runLogger() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// runAsserter returns the asserter set with WithAsserter, or DefaultAsserter.
func (s Snapshot) runAsserter() Asserter {
	if s.asserter != nil {
		return s.asserter
	}
	return DefaultAsserter
}

func (c *Collaborator) snapshot() Snapshot {
	return Snapshot{
		State:       maps.Clone(c.State),
		Getters:     c.Getters,
		RootState:   maps.Clone(c.RootState),
		RootGetters: c.RootGetters,
		Extras:      c.Extras,
	}
}

// Store is the collaborator as the action sees it: the caller's maps plus the
// instrumented Commit and Dispatch entry points of one run.
type Store struct {
	State       map[string]any
	Getters     map[string]any
	RootState   map[string]any
	RootGetters map[string]any
	Extras      map[string]any

	emit *interceptor
}

func augment(c *Collaborator, ic *interceptor) *Store {
	return &Store{
		State:       c.State,
		Getters:     c.Getters,
		RootState:   c.RootState,
		RootGetters: c.RootGetters,
		Extras:      c.Extras,
		emit:        ic,
	}
}

// Commit records a mutation. args are an optional payload followed by optional
// options. The return values are those of the matched expectation's callback,
// or (nil, nil) when it has none.
func (s *Store) Commit(name string, args ...any) (any, error) {
	return s.emit.emit(KindMutation, name, args)
}

// Dispatch records a sub-action dispatch. See Commit.
func (s *Store) Dispatch(name string, args ...any) (any, error) {
	return s.emit.emit(KindDispatch, name, args)
}
