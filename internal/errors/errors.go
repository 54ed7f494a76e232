// Package errors provides domain-specific error types and sentinel errors
// shared by the importer, the API and the CLI.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a stored parse run was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrEmptyInput indicates the pasted text or page source was blank.
	ErrEmptyInput = errors.New("empty input")

	// ErrInputTooLarge indicates the input exceeds the configured size limit.
	ErrInputTooLarge = errors.New("input too large")

	// ErrUnknownKind indicates an unsupported AISIS page kind.
	ErrUnknownKind = errors.New("unknown page kind")

	// ErrTimeout indicates a parse did not finish within its deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrParseFailed indicates the parser produced no records.
	ErrParseFailed = errors.New("parse produced no records")

	// ErrRateLimited indicates the client sent too many parse requests.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsTimeout reports whether err is or wraps ErrTimeout.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// IsInvalidInput reports whether err describes a request the caller must fix.
func IsInvalidInput(err error) bool {
	var ve *ValidationError
	return errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrInputTooLarge) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.As(err, &ve)
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// ParseError carries the first error issue of a failed parse.
type ParseError struct {
	Kind    string
	RunID   string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failed (kind=%s, run=%s): %s", e.Kind, e.RunID, e.Message)
}

func (e *ParseError) Unwrap() error {
	return ErrParseFailed
}
