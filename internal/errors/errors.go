package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session manager
var (
	// Session errors
	ErrNoSession          = errors.New("no active session")
	ErrSessionExpired     = errors.New("session expired")
	ErrExchangeSuperseded = errors.New("credential exchange superseded by logout")

	// Stored record errors
	ErrInvalidRecord = errors.New("invalid stored session record")
	ErrMissingField  = errors.New("stored session record is missing a field")

	// Provider errors
	ErrInvalidExpiry   = errors.New("invalid token expiry")
	ErrSubjectMismatch = errors.New("id token subject does not match user id")

	// General errors
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// New returns an error with the supplied message
func New(text string) error {
	return errors.New(text)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
