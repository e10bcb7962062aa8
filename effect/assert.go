package effect

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/google/go-cmp/cmp"
	"github.com/onsi/gomega/types"
	"github.com/stretchr/testify/assert"
)

// Asserter is the equality capability comparators delegate to. Both methods
// return nil on success and a descriptive error on failure.
type Asserter interface {
	// Equal reports whether actual is structurally equal to expected.
	Equal(expected, actual any) error

	// Matches reports whether actual satisfies pattern.
	Matches(pattern, actual any) error
}

// DefaultAsserter uses testify's object equality, gomega matchers and regular
// expressions as patterns, and go-cmp for diff output.
var DefaultAsserter Asserter = hostAsserter{}

type hostAsserter struct{}

func (hostAsserter) Equal(expected, actual any) error {
	if assert.ObjectsAreEqual(expected, actual) {
		return nil
	}
	return fmt.Errorf("values differ (-expected +received):\n%s", diff(expected, actual))
}

func (hostAsserter) Matches(pattern, actual any) error {
	switch p := pattern.(type) {
	case types.GomegaMatcher:
		ok, err := p.Match(actual)
		if err != nil {
			return fmt.Errorf("matcher error: %w", err)
		}
		if !ok {
			return fmt.Errorf("%s", p.FailureMessage(actual))
		}
		return nil
	case *regexp.Regexp:
		s, ok := actual.(string)
		if !ok {
			return fmt.Errorf("expected a string matching %q, received %T", p.String(), actual)
		}
		if !p.MatchString(s) {
			return fmt.Errorf("expected %q to match %q", s, p.String())
		}
		return nil
	default:
		return fmt.Errorf("unsupported pattern type %T", pattern)
	}
}

// isPattern reports whether v is a pattern Matches understands rather than a
// literal value.
func isPattern(v any) bool {
	switch v.(type) {
	case types.GomegaMatcher, *regexp.Regexp:
		return true
	}
	return false
}

// diff renders a go-cmp diff. Unexported struct fields are included so that
// arbitrary payload types can be diffed without panicking.
func diff(expected, actual any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("- %#v\n+ %#v", expected, actual)
		}
	}()
	d := cmp.Diff(expected, actual, cmp.Exporter(func(reflect.Type) bool { return true }))
	if d == "" {
		return fmt.Sprintf("- %#v\n+ %#v", expected, actual)
	}
	return d
}
