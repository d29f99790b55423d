package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every domain error wraps exactly one of them, and the HTTP
// boundary maps the category to a status code.
var (
	// ErrInvalidInput is returned when client-supplied data is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a uniqueness or referential constraint is violated.
	ErrConflict = errors.New("conflict")
	// ErrUnauthenticated is returned for bad credentials or an invalid/expired token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUpstream is returned when a remote dependency could not be reached.
	ErrUpstream = errors.New("upstream unavailable")
)

// Error is a client-facing failure belonging to one of the categories above.
type Error struct {
	Category error
	Message  string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Category
}

func categorized(category error, msg string) error {
	return &Error{Category: category, Message: msg}
}

// Invalid returns an ErrInvalidInput error with a formatted message.
func Invalid(format string, args ...any) error {
	return categorized(ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Message returns the client-facing message of err: the message of the first
// domain Error in its chain, or the full error text otherwise.
func Message(err error) string {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Message
	}

	return err.Error()
}
