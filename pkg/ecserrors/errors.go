package ecserrors

import (
	"errors"
	"fmt"
)

// Kind names one of the error categories spec §7 defines. These are
// kinds, not Go types — every Kind is carried by the same *Error
// struct so callers can branch with a single type switch on Kind
// rather than on a dozen distinct error types.
type Kind string

const (
	ArgumentShape          Kind = "argument_shape"
	NotFound               Kind = "not_found"
	AlreadyExists          Kind = "already_exists"
	NotLocked              Kind = "not_locked"
	WrongPhase             Kind = "wrong_phase"
	InvalidPayload         Kind = "invalid_payload"
	MultipleResults        Kind = "multiple_results"
	NonBooleanRunCondition Kind = "non_boolean_run_condition"
	DuplicateCommitKey     Kind = "duplicate_commit_key"
	MustRunInSystem        Kind = "must_run_in_system"
)

// Error is the single error type the engine raises. Op names the
// operation that failed (e.g. "ecscommand.Spawn", "ecsquery.Query.One"); Err, if
// present, is the wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg != "" {
			return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
		}
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ecserrors.New(kind, "", "")) match any *Error
// sharing the same Kind, regardless of Op/Msg/Err.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error with the given kind, operation name, and
// message.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap constructs an *Error that wraps an underlying cause.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrapf is Wrap with a formatted message alongside the wrapped cause.
func Wrapf(kind Kind, op string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Of extracts the Kind of err if it is (or wraps) an *Error, and
// reports whether extraction succeeded.
func Of(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// HasKind reports whether err is (or wraps) an *Error of the given
// kind.
func HasKind(err error, kind Kind) bool {
	k, ok := Of(err)
	return ok && k == kind
}
