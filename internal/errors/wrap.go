package errors

import (
	"errors"
	"fmt"
)

// ErrorWrapper tags errors with the component and operation that produced them.
type ErrorWrapper struct {
	component string
	operation string
}

// NewWrapper creates a wrapper, e.g. NewWrapper("storage", "save_run").
func NewWrapper(component, operation string) *ErrorWrapper {
	return &ErrorWrapper{component: component, operation: operation}
}

// Wrap wraps err with a caller-facing message. Returns nil if err is nil.
func (w *ErrorWrapper) Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{Component: w.component, Operation: w.operation, Cause: err, Message: message}
}

// Wrapf is Wrap with a formatted message.
func (w *ErrorWrapper) Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return w.Wrap(err, fmt.Sprintf(format, args...))
}

// WrappedError keeps the internal cause next to a message safe to return to clients.
type WrappedError struct {
	Component string
	Operation string
	Cause     error
	Message   string
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Operation, e.Message, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// PublicMessage returns the client-safe message of the outermost WrappedError
// in the chain, or err.Error() when there is none.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var wrapped *WrappedError
	if errors.As(err, &wrapped) {
		return wrapped.Message
	}
	return err.Error()
}
