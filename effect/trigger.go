package effect

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind is the kind of effect a trigger represents.
type Kind string

const (
	// KindMutation is a state mutation committed by the action.
	KindMutation Kind = "mutation"

	// KindDispatch is a sub-action dispatched by the action.
	KindDispatch Kind = "dispatch"

	// KindUnset marks the expectation synthesized for an effect emitted after
	// every declared expectation was consumed. It never matches a real effect.
	KindUnset Kind = "unset"
)

// Valid reports whether k is one of the three trigger kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindMutation, KindDispatch, KindUnset:
		return true
	}
	return false
}

// unsetPayload is the type of Unset.
type unsetPayload struct{}

func (unsetPayload) String() string { return "<unset>" }

// Unset passed as the payload to FromFields leaves the payload undeclared.
// An undeclared expected payload matches any received payload.
var Unset any = unsetPayload{}

// Trigger is one effect call: either declared by a test or recorded from the
// action. Triggers are immutable; use the With* helpers to derive new ones.
type Trigger struct {
	kind       Kind
	name       string
	payload    any
	hasPayload bool
	options    any
}

// FromFields builds a trigger from its fields. Pass Unset as payload to leave
// it undeclared; pass nil options for none.
func FromFields(kind Kind, name string, payload, options any) (Trigger, error) {
	t := Trigger{
		kind:    kind,
		name:    name,
		options: options,
	}
	if _, unset := payload.(unsetPayload); !unset {
		t.payload = payload
		t.hasPayload = true
	}
	if err := t.validate(); err != nil {
		return Trigger{}, err
	}
	return t, nil
}

// Mutation returns a mutation trigger. args are an optional payload followed by
// optional options; with no args the payload is undeclared.
//
// Mutation panics on malformed input. Use FromFields to handle the error.
func Mutation(name string, args ...any) Trigger {
	return mustTrigger(KindMutation, name, args)
}

// Dispatch returns a dispatch trigger. See Mutation for the meaning of args.
func Dispatch(name string, args ...any) Trigger {
	return mustTrigger(KindDispatch, name, args)
}

func mustTrigger(kind Kind, name string, args []any) Trigger {
	t, err := fromArgs(kind, name, args, Unset)
	if err != nil {
		panic(err)
	}
	return t
}

// fromArgs maps variadic (payload, options) arguments onto FromFields.
// missing is the payload used when no payload argument is given.
func fromArgs(kind Kind, name string, args []any, missing any) (Trigger, error) {
	switch len(args) {
	case 0:
		return FromFields(kind, name, missing, nil)
	case 1:
		return FromFields(kind, name, args[0], nil)
	case 2:
		return FromFields(kind, name, args[0], args[1])
	default:
		err := newError(ErrCodeInvalidTriggerOptions,
			"expected at most a payload and options, got %d arguments", len(args))
		err.Field = "options"
		return Trigger{}, err
	}
}

// unexpected is the sentinel expectation for effects past the declared list.
func unexpected() Trigger {
	return Trigger{kind: KindUnset}
}

// validate enforces the trigger invariants in the documented order.
func (t Trigger) validate() error {
	if t.kind == "" && t.name == "" {
		return newError(ErrCodeEmptyTriggerInput, "cannot construct trigger from empty input")
	}
	if !t.kind.Valid() {
		err := newError(ErrCodeInvalidTriggerKind,
			"trigger kind must be %q, %q or %q (received %q)",
			KindMutation, KindDispatch, KindUnset, t.kind)
		err.Field = "kind"
		return err
	}
	if t.name == "" && t.kind != KindUnset {
		err := newError(ErrCodeInvalidTriggerName, "trigger name must be a non-empty string")
		err.Field = "name"
		return err
	}
	if !structured(t.options) {
		err := newError(ErrCodeInvalidTriggerOptions,
			"trigger options must be a map or struct (received %T)", t.options)
		err.Field = "options"
		return err
	}
	return nil
}

// structured reports whether v is nil or an object-like value.
func structured(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return true
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Struct:
		return true
	}
	return false
}

// Kind returns the trigger kind.
func (t Trigger) Kind() Kind { return t.kind }

// Name returns the mutation or action name.
func (t Trigger) Name() string { return t.name }

// Payload returns the payload and whether one was declared.
func (t Trigger) Payload() (any, bool) { return t.payload, t.hasPayload }

// HasPayload reports whether the payload was declared.
func (t Trigger) HasPayload() bool { return t.hasPayload }

// Options returns the options, or nil.
func (t Trigger) Options() any { return t.options }

// IsUnset reports whether t is the sentinel for an undeclared effect.
func (t Trigger) IsUnset() bool { return t.kind == KindUnset }

// IsZero reports whether t is the zero Trigger.
func (t Trigger) IsZero() bool { return t.kind == "" && t.name == "" }

// WithPayload returns a copy of t with the payload declared as p.
func (t Trigger) WithPayload(p any) Trigger {
	t.payload = p
	t.hasPayload = true
	return t
}

// WithoutPayload returns a copy of t with the payload undeclared.
func (t Trigger) WithoutPayload() Trigger {
	t.payload = nil
	t.hasPayload = false
	return t
}

// WithOptions returns a copy of t with options o.
func (t Trigger) WithOptions(o any) (Trigger, error) {
	t.options = o
	if err := t.validate(); err != nil {
		return Trigger{}, err
	}
	return t, nil
}

// Document returns t as a plain map with "kind" and "name", plus "payload"
// when declared and "options" when set. Journals and snapshots store this
// form.
func (t Trigger) Document() map[string]any {
	doc := map[string]any{
		"kind": string(t.kind),
		"name": t.name,
	}
	if t.hasPayload {
		doc["payload"] = t.payload
	}
	if t.options != nil {
		doc["options"] = t.options
	}
	return doc
}

// String renders the trigger for diagnostics.
func (t Trigger) String() string {
	if t.IsUnset() {
		return "<no effect declared>"
	}
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s %q", t.kind, t.name)
	if t.hasPayload {
		fmt.Fprintf(&buf, " payload=%#v", t.payload)
	}
	if t.options != nil {
		fmt.Fprintf(&buf, " options=%#v", t.options)
	}
	return buf.String()
}
