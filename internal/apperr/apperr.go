// Package apperr defines the error kinds shared by the relationship core.
// Handlers map these to HTTP status codes; services wrap them with context
// via fmt.Errorf and %w so errors.Is still matches the kind.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the actor lacks the relationship to the record
	// required by policy (wrong party).
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates the record exists but is not in the state
	// required for the requested transition.
	ErrConflict = errors.New("conflict")
	// ErrSelfReference indicates actor and target resolve to the same
	// identity where distinctness is required.
	ErrSelfReference = errors.New("self reference")
	// ErrInternal indicates a store or transport failure unrelated to
	// business rules.
	ErrInternal = errors.New("internal error")
)

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

// Forbiddenf wraps ErrForbidden with a formatted message.
func Forbiddenf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrForbidden}, args...)...)
}

// Conflictf wraps ErrConflict with a formatted message.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrConflict}, args...)...)
}

// SelfReferencef wraps ErrSelfReference with a formatted message.
func SelfReferencef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrSelfReference}, args...)...)
}

// Internalf wraps ErrInternal with a formatted message. The underlying cause
// should be included as an argument so it stays in the chain for logging.
func Internalf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInternal}, args...)...)
}

// Expected reports whether the error is an anticipated, user-facing outcome
// rather than an application fault. Expected errors are returned to the
// caller without being logged as application errors.
func Expected(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrSelfReference)
}
