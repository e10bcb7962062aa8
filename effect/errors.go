package effect

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies the kind of failure a run produced.
type ErrorCode string

const (
	// ErrCodeInvalidExpectationList indicates the expectations were not an ordered list.
	ErrCodeInvalidExpectationList ErrorCode = "INVALID_EXPECTATION_LIST"

	// ErrCodeEmptyTriggerInput indicates a trigger was declared with no kind and no name.
	ErrCodeEmptyTriggerInput ErrorCode = "EMPTY_TRIGGER_INPUT"

	// ErrCodeMisplacedExpectationField indicates a comparator or callback was put on
	// the trigger descriptor instead of the expectation.
	ErrCodeMisplacedExpectationField ErrorCode = "MISPLACED_EXPECTATION_FIELD"

	// ErrCodeInvalidTriggerKind indicates the kind is not mutation, dispatch or unset.
	ErrCodeInvalidTriggerKind ErrorCode = "INVALID_TRIGGER_KIND"

	// ErrCodeInvalidTriggerName indicates the name is not a string or is empty.
	ErrCodeInvalidTriggerName ErrorCode = "INVALID_TRIGGER_NAME"

	// ErrCodeInvalidTriggerOptions indicates options that are not a structured value.
	ErrCodeInvalidTriggerOptions ErrorCode = "INVALID_TRIGGER_OPTIONS"

	// ErrCodeNonCallableComparator indicates a comparator that is not a comparator func.
	ErrCodeNonCallableComparator ErrorCode = "NON_CALLABLE_COMPARATOR"

	// ErrCodeNonCallableCallback indicates a callback that is not a callback func.
	ErrCodeNonCallableCallback ErrorCode = "NON_CALLABLE_CALLBACK"

	// ErrCodeInterceptorConstructionFailed indicates the action called Commit or
	// Dispatch with malformed arguments.
	ErrCodeInterceptorConstructionFailed ErrorCode = "INTERCEPTOR_CONSTRUCTION_FAILED"

	// ErrCodeActionExecutionFailed indicates the action (or a callback it reached)
	// returned an error or panicked.
	ErrCodeActionExecutionFailed ErrorCode = "ACTION_EXECUTION_FAILED"

	// ErrCodeTriggerCountMismatch indicates the action emitted more or fewer effects
	// than were declared.
	ErrCodeTriggerCountMismatch ErrorCode = "TRIGGER_COUNT_MISMATCH"

	// ErrCodeTriggerMismatch indicates a received trigger diverged from its expectation.
	ErrCodeTriggerMismatch ErrorCode = "TRIGGER_MISMATCH"
)

// Category groups error codes by the phase that detects them.
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategoryExecution     Category = "execution"
	CategoryPostRun       Category = "post-run"
	CategoryComparison    Category = "comparison"
)

// Category returns the phase that raises errors with this code.
func (c ErrorCode) Category() Category {
	switch c {
	case ErrCodeInterceptorConstructionFailed, ErrCodeActionExecutionFailed:
		return CategoryExecution
	case ErrCodeTriggerCountMismatch:
		return CategoryPostRun
	case ErrCodeTriggerMismatch:
		return CategoryComparison
	default:
		return CategoryConfiguration
	}
}

// Error is the structured failure returned by every phase of a run.
//
// Index is the position of the offending expectation or emitted effect, or -1
// when the failure is not tied to one position.
type Error struct {
	Code    ErrorCode
	Message string

	// Action names the action under test, when known.
	Action string

	Index int

	// Field names the offending field (descriptor key, or kind/name/payload/options
	// for mismatches).
	Field string

	Expected *Trigger
	Received *Trigger

	// ExpectedCount and ReceivedCount are set for TRIGGER_COUNT_MISMATCH.
	ExpectedCount int
	ReceivedCount int

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s: %s", e.Code, e.Message)

	var ctx []string
	if e.Action != "" {
		ctx = append(ctx, "action="+e.Action)
	}
	if e.Index >= 0 {
		ctx = append(ctx, fmt.Sprintf("index=%d", e.Index))
	}
	if e.Field != "" {
		ctx = append(ctx, "field="+e.Field)
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&buf, " (%s)", strings.Join(ctx, ", "))
	}

	if e.Expected != nil || e.Received != nil {
		fmt.Fprintf(&buf, "\n  Expected: %s", describe(e.Expected))
		fmt.Fprintf(&buf, "\n  Received: %s", describe(e.Received))
	}
	if e.Err != nil {
		fmt.Fprintf(&buf, ": %v", e.Err)
	}
	return buf.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func describe(t *Trigger) string {
	if t == nil {
		return "<none>"
	}
	return t.String()
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Index:   -1,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err's chain contains an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

// IsConfigurationError reports whether err was raised before the action ran.
func IsConfigurationError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code.Category() == CategoryConfiguration
}

// IsMismatch reports whether err is a trigger or trigger-count mismatch.
func IsMismatch(err error) bool {
	return IsCode(err, ErrCodeTriggerMismatch) || IsCode(err, ErrCodeTriggerCountMismatch)
}
