package domain

import (
	"errors"
	"fmt"
)

// Failure categories. Callers match them with errors.Is; messages added by
// wrapping are safe to show to the user.
var (
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrExpired         = errors.New("token expired")
	ErrMalformedInput  = errors.New("malformed input")
	ErrValidation      = errors.New("validation failed")
)

// MalformedInputError reports the input line that failed to parse.
type MalformedInputError struct {
	Line   int
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: line %d: %s", e.Line, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedInput) hold.
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// IsAuthFailure reports whether err means the request carries no valid
// identity. Expired and invalid tokens are deliberately the same thing here.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrExpired)
}
