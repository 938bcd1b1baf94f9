// Package errors provides the service-level wrapped error type for the
// EVOLV experiment server.
package errors

import (
	"strings"
)

// Error carries a message plus the operation and component it arose in.
type Error struct {
	// Err is the underlying error that was returned.
	Err error
	// Message is a human-readable description.
	Message string
	// Operation is what was being performed when the error occurred.
	Operation string
	// Component is the package or subsystem where the error occurred.
	Component string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	if e.Message != "" {
		b.WriteString(e.Message)
	}
	if e.Operation != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString("operation=")
		b.WriteString(e.Operation)
	}
	if e.Component != "" {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString("component=")
		b.WriteString(e.Component)
	}
	if e.Err != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithOperation adds an operation to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Operation = op
	return e
}

// WithComponent adds a component to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// New creates a service error with the given message.
func New(message string) *Error {
	return &Error{Message: message}
}

// Wrap wraps an existing error with a message. If err is nil, Wrap returns
// nil.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Err: err, Message: message}
}
