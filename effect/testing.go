package effect

import (
	"context"
	"testing"
)

// AssertAction runs Verify and fails t immediately on any error. It returns the
// action's result.
//
//	effect.AssertAction(t, increment,
//	    []effect.Expectation{
//	        effect.Expect(effect.Mutation("increment")),
//	        effect.Expect(effect.Dispatch("console", map[string]any{"msg": "hello"})),
//	    },
//	    nil, store)
func AssertAction(
	t testing.TB,
	action Action,
	expectations []Expectation,
	payload any,
	collab *Collaborator,
	opts ...Option,
) any {
	t.Helper()

	ctx := context.Background()
	if c, ok := t.(interface{ Context() context.Context }); ok {
		ctx = c.Context()
	}

	result, err := Verify(ctx, action, expectations, payload, collab, opts...)
	if err != nil {
		t.Fatalf("%v", err)
	}
	return result
}
