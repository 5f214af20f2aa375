package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is a generic sentinel for uniqueness clashes.
	ErrConflict = errors.New("conflict")
)

// Kind wraps a generic sentinel with a specific message so callers can
// match either one with errors.Is.
type Kind struct {
	msg  string
	kind error
}

func New(kind error, msg string) error { return &Kind{msg: msg, kind: kind} }

func (e *Kind) Error() string { return e.msg }

func (e *Kind) Unwrap() error { return e.kind }
