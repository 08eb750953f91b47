// Package apperr holds the error kinds shared by the repository, the lending
// engine and the HTTP controllers. Callers classify errors with errors.Is
// against the sentinel kinds; the message is meant for end users.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is bad or missing input, detected before any mutation.
	ErrValidation = errors.New("validation error")
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the entity is not in the state the transition needs.
	ErrConflict = errors.New("conflict")
	// ErrPermission means the actor lacks the required role.
	ErrPermission = errors.New("permission denied")
)

// Error carries a user-facing message and unwraps to its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error { return newf(ErrValidation, format, args...) }
func NotFound(format string, args ...any) error   { return newf(ErrNotFound, format, args...) }
func Conflict(format string, args ...any) error   { return newf(ErrConflict, format, args...) }
func Permission(format string, args ...any) error { return newf(ErrPermission, format, args...) }

// Message returns the user-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
