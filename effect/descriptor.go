package effect

import (
	"fmt"
	"sort"
)

// Descriptor is the loosely-typed form of a trigger or expectation, as decoded
// from fixture files or built by table-driven tests.
//
// Trigger keys: "kind" (or "type"), "name", "payload", "options".
// Expectation keys: "trigger" (or "t"), "comparator", "callback".
type Descriptor map[string]any

// misplacedFields are expectation-only keys that must not appear on a trigger.
var misplacedFields = []string{"comparator", "callback", "check_function"}

// FromDescriptor builds a trigger from a descriptor. An absent "payload" key
// leaves the payload undeclared; a present key declares it, even when nil.
func FromDescriptor(d Descriptor) (Trigger, error) {
	if len(d) == 0 {
		return Trigger{}, newError(ErrCodeEmptyTriggerInput, "cannot construct trigger from empty input")
	}

	kindVal, hasKind := d["kind"]
	if !hasKind {
		kindVal, hasKind = d["type"]
	}
	nameVal, hasName := d["name"]
	if !hasKind && !hasName {
		return Trigger{}, newError(ErrCodeEmptyTriggerInput, "cannot construct trigger from empty input")
	}

	for _, field := range misplacedFields {
		if _, ok := d[field]; ok {
			err := newError(ErrCodeMisplacedExpectationField,
				"found %q on the trigger; %q is a property of the expectation itself, not of its trigger",
				field, field)
			err.Field = field
			return Trigger{}, err
		}
	}

	var kind Kind
	switch k := kindVal.(type) {
	case Kind:
		kind = k
	case string:
		kind = Kind(k)
	default:
		err := newError(ErrCodeInvalidTriggerKind, "trigger kind must be a string (received %T)", kindVal)
		err.Field = "kind"
		return Trigger{}, err
	}
	if !kind.Valid() {
		err := newError(ErrCodeInvalidTriggerKind,
			"trigger kind must be %q, %q or %q (received %q)",
			KindMutation, KindDispatch, KindUnset, kind)
		err.Field = "kind"
		return Trigger{}, err
	}

	name, ok := nameVal.(string)
	if !ok {
		err := newError(ErrCodeInvalidTriggerName, "trigger name must be a string (received %T)", nameVal)
		err.Field = "name"
		return Trigger{}, err
	}

	payload, hasPayload := d["payload"]
	if !hasPayload {
		payload = Unset
	}
	return FromFields(kind, name, payload, d["options"])
}

// ExpectationFromDescriptor builds an expectation from a descriptor. The
// "trigger" value may be a Trigger, a Descriptor or a map[string]any.
func ExpectationFromDescriptor(d Descriptor) (Expectation, error) {
	raw, ok := d["trigger"]
	if !ok {
		raw, ok = d["t"]
	}
	if !ok || raw == nil {
		return Expectation{}, newError(ErrCodeEmptyTriggerInput,
			"no trigger present in expectation with keys %v (did you put the trigger fields directly on the expectation?)",
			descriptorKeys(d))
	}

	var e Expectation
	switch t := raw.(type) {
	case Trigger:
		if err := t.validate(); err != nil {
			return Expectation{}, err
		}
		e.Trigger = t
	case Descriptor:
		trigger, err := FromDescriptor(t)
		if err != nil {
			return Expectation{}, err
		}
		e.Trigger = trigger
	case map[string]any:
		trigger, err := FromDescriptor(Descriptor(t))
		if err != nil {
			return Expectation{}, err
		}
		e.Trigger = trigger
	default:
		return Expectation{}, newError(ErrCodeEmptyTriggerInput,
			"expectation trigger must be a Trigger or descriptor (received %T)", raw)
	}

	if c, ok := d["comparator"]; ok && c != nil {
		cmp, ok := asComparator(c)
		if !ok {
			err := newError(ErrCodeNonCallableComparator, "comparator must be a function (received %T)", c)
			err.Field = "comparator"
			return Expectation{}, err
		}
		e.Comparator = cmp
	}
	if c, ok := d["callback"]; ok && c != nil {
		cb, ok := asCallback(c)
		if !ok {
			err := newError(ErrCodeNonCallableCallback, "callback must be a function (received %T)", c)
			err.Field = "callback"
			return Expectation{}, err
		}
		e.Callback = cb
	}
	return e, nil
}

// ExpectationsFromDescriptors builds an ordered expectation list. list must be a
// slice of Expectation, Descriptor or map[string]any values (or []any mixing
// them); anything else is INVALID_EXPECTATION_LIST. A nil list yields no
// expectations.
func ExpectationsFromDescriptors(list any) ([]Expectation, error) {
	var items []any
	switch l := list.(type) {
	case nil:
		return nil, nil
	case []Expectation:
		return l, nil
	case []Descriptor:
		for _, d := range l {
			items = append(items, d)
		}
	case []map[string]any:
		for _, d := range l {
			items = append(items, d)
		}
	case []any:
		items = l
	default:
		return nil, newError(ErrCodeInvalidExpectationList,
			"expectations must be an ordered list (received %T)", list)
	}

	out := make([]Expectation, 0, len(items))
	for i, item := range items {
		var (
			e   Expectation
			err error
		)
		switch v := item.(type) {
		case Expectation:
			e = v
		case Descriptor:
			e, err = ExpectationFromDescriptor(v)
		case map[string]any:
			e, err = ExpectationFromDescriptor(Descriptor(v))
		default:
			err = newError(ErrCodeInvalidExpectationList,
				"expectation must be an Expectation or descriptor (received %T)", item)
		}
		if err != nil {
			return nil, withIndex(err, i)
		}
		out = append(out, e)
	}
	return out, nil
}

func asComparator(v any) (Comparator, bool) {
	switch f := v.(type) {
	case Comparator:
		return f, f != nil
	case func(Kind, Trigger, Trigger, Snapshot) error:
		return f, f != nil
	}
	return nil, false
}

func asCallback(v any) (Callback, bool) {
	switch f := v.(type) {
	case Callback:
		return f, f != nil
	case func(Trigger, Trigger, *Collaborator) (any, error):
		return f, f != nil
	}
	return nil, false
}

// withIndex stamps an expectation index onto a configuration error.
func withIndex(err error, i int) error {
	if e, ok := err.(*Error); ok && e.Index < 0 {
		e.Index = i
		return e
	}
	return fmt.Errorf("expectation %d: %w", i, err)
}

// descriptorKeys lists d's keys in sorted order, for diagnostics.
func descriptorKeys(d Descriptor) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
