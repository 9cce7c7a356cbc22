// Package errs defines the error taxonomy shared across services.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition indicates the status policy rejected a
	// requested task status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnauthorized indicates the actor lacks the capability for the
	// attempted operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation indicates a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")
)

// NotFound wraps ErrNotFound with the entity kind and id.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// InvalidTransition wraps ErrInvalidTransition with the offending statuses.
func InvalidTransition(from, to string) error {
	return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
}

// Unauthorized wraps ErrUnauthorized with the denied operation.
func Unauthorized(op string) error {
	return fmt.Errorf("%s: %w", op, ErrUnauthorized)
}

// Validation wraps ErrValidation with the failing field.
func Validation(field, reason string) error {
	return fmt.Errorf("%s %s: %w", field, reason, ErrValidation)
}
