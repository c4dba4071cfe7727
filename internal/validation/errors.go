package validation

import (
	"errors"
	"strings"
)

var (
	// ErrValidation is matched by every *Error via errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrBodyTooLarge is returned when a request body exceeds Options.MaxBodyBytes.
	ErrBodyTooLarge = errors.New("request body too large")
)

// Error lists every rule an incoming payload broke.
type Error struct {
	Violations []string
}

func (e *Error) Error() string {
	if len(e.Violations) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Violations, "; ")
}

func (e *Error) Unwrap() error {
	return ErrValidation
}

func newError(violations ...string) *Error {
	return &Error{Violations: violations}
}
