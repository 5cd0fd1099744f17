package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Auth errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrMalformedIdentity is returned when a verified token carries a subject
	// that is not of the "<role>:<id>" form. It is a validation-class error.
	ErrMalformedIdentity = fmt.Errorf("%w: malformed token identity", ErrorValidation)
)

// ValidationError wraps a validation failure so that errors.Is(err,
// ErrorValidation) holds while keeping the original detail in the message.
func ValidationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrorValidation, err)
}
