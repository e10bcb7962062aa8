package effect

import (
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/roach88/effectcheck/internal/canonical"
)

// Comparator decides whether a received trigger satisfies the expected one.
// It returns nil on success. kind is the kind of the received trigger and
// snapshot the collaborator at emission time.
type Comparator func(kind Kind, received, expected Trigger, snapshot Snapshot) error

// Strict compares kind, then name, then the payload if the expectation
// declares one, then the options if the expectation declares them. Any
// divergence is a TRIGGER_MISMATCH.
func Strict(kind Kind, received, expected Trigger, snapshot Snapshot) error {
	return compareTriggers(DefaultAsserter, received, expected)
}

// NewStrict returns a strict comparator backed by a.
func NewStrict(a Asserter) Comparator {
	return func(kind Kind, received, expected Trigger, snapshot Snapshot) error {
		return compareTriggers(a, received, expected)
	}
}

// Permissive performs the Strict comparison but only logs a divergence, at
// warn level, to the run's logger (see WithLogger). It never fails a run.
// Values are compared with the run's asserter when WithAsserter is given.
func Permissive(kind Kind, received, expected Trigger, snapshot Snapshot) error {
	logMismatch(snapshot.runLogger(), compareTriggers(snapshot.runAsserter(), received, expected))
	return nil
}

// NewPermissive returns a permissive comparator logging to logger instead of
// the run's logger.
func NewPermissive(logger *slog.Logger) Comparator {
	return func(kind Kind, received, expected Trigger, snapshot Snapshot) error {
		logMismatch(logger, compareTriggers(snapshot.runAsserter(), received, expected))
		return nil
	}
}

func logMismatch(logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	attrs := []any{"error", err.Error()}
	if e, ok := err.(*Error); ok && e.Received != nil {
		attrs = append(attrs, "kind", e.Received.Kind(), "name", e.Received.Name(), "field", e.Field)
	}
	logger.Warn("effect not as expected", attrs...)
}

// Normalized is Strict with payloads and options compared by their canonical
// JSON form, so 10, int64(10), 10.0 and json.Number("10") are equal and a
// struct equals the map it encodes to. Patterns are still matched as patterns.
func Normalized(kind Kind, received, expected Trigger, snapshot Snapshot) error {
	return compareTriggers(normalizedAsserter{}, received, expected)
}

type normalizedAsserter struct{}

func (normalizedAsserter) Equal(expected, actual any) error {
	eq, err := canonical.Equal(expected, actual)
	if err != nil {
		return DefaultAsserter.Equal(expected, actual)
	}
	if !eq {
		return fmt.Errorf("values differ (-expected +received):\n%s", diff(expected, actual))
	}
	return nil
}

func (normalizedAsserter) Matches(pattern, actual any) error {
	return DefaultAsserter.Matches(pattern, actual)
}

func compareTriggers(a Asserter, received, expected Trigger) error {
	mismatch := func(field string, cause error) error {
		e := newError(ErrCodeTriggerMismatch, "%s %q not as expected: %s differs",
			received.kind, received.name, field)
		e.Field = field
		e.Expected = &expected
		e.Received = &received
		e.Err = cause
		return e
	}

	if received.kind != expected.kind {
		return mismatch("kind", fmt.Errorf("expected %s, received %s", expected.kind, received.kind))
	}
	if received.name != expected.name {
		return mismatch("name", fmt.Errorf("expected %q, received %q", expected.name, received.name))
	}
	if expected.hasPayload {
		if err := compareValue(a, expected.payload, received.payload); err != nil {
			return mismatch("payload", err)
		}
	}
	if expected.options != nil {
		if err := compareValue(a, expected.options, received.options); err != nil {
			return mismatch("options", err)
		}
	}
	return nil
}

func compareValue(a Asserter, expected, actual any) error {
	if isPattern(expected) {
		return a.Matches(expected, actual)
	}
	return a.Equal(expected, actual)
}

// Built-in comparator names, as used in fixture files.
const (
	ComparatorStrict     = "strict"
	ComparatorPermissive = "permissive"
	ComparatorNormalized = "normalized"
)

var builtinComparators = map[string]Comparator{
	ComparatorStrict:     Strict,
	ComparatorPermissive: Permissive,
	ComparatorNormalized: Normalized,
}

// ComparatorByName returns the built-in comparator registered under name.
func ComparatorByName(name string) (Comparator, error) {
	c, ok := builtinComparators[name]
	if !ok {
		return nil, fmt.Errorf("unknown comparator %q (known: %v)", name, ComparatorNames())
	}
	return c, nil
}

// ComparatorNames lists the built-in comparator names in sorted order.
func ComparatorNames() []string {
	names := make([]string, 0, len(builtinComparators))
	for n := range builtinComparators {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// defaultComparator holds the process-wide fallback comparator.
var defaultComparator atomic.Pointer[Comparator]

// DefaultComparator returns the process-wide fallback comparator, Strict
// unless SetDefaultComparator replaced it.
func DefaultComparator() Comparator {
	if c := defaultComparator.Load(); c != nil {
		return *c
	}
	return Strict
}

// SetDefaultComparator replaces the process-wide fallback comparator used by
// checks with no expectation-level or run-level comparator. Passing nil
// restores Strict. The returned func restores the previous value.
//
// Configure it once at startup, or per test with t.Cleanup(restore). It is not
// reentrant: changing it while runs are reporting in other goroutines makes
// the comparator those runs use unpredictable.
func SetDefaultComparator(c Comparator) (restore func()) {
	var next *Comparator
	if c != nil {
		next = &c
	}
	prev := defaultComparator.Swap(next)
	return func() { defaultComparator.Store(prev) }
}
