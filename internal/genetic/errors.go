package genetic

import "fmt"

// Kind classifies engine errors so callers can react to the failure class
// without string matching.
type Kind int

const (
	// KindUnknown is the zero value for unclassified errors.
	KindUnknown Kind = iota
	// KindInvalidDataset indicates a malformed or empty dataset.
	KindInvalidDataset
	// KindInvalidConfig indicates an out-of-range configuration value,
	// caught before any generation executes.
	KindInvalidConfig
	// KindEncoding indicates a parameter/chromosome shape mismatch.
	KindEncoding
	// KindInvalidPopulation indicates an internal invariant violation,
	// such as an empty population reaching selection.
	KindInvalidPopulation
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidDataset:
		return "invalid_dataset"
	case KindInvalidConfig:
		return "invalid_config"
	case KindEncoding:
		return "encoding"
	case KindInvalidPopulation:
		return "invalid_population"
	default:
		return "unknown"
	}
}

// Error represents an engine error with context that can be wrapped with
// additional information. All engine errors are fatal: they abort the run
// before or at the point of detection and the caller receives no RunResult.
type Error struct {
	// Kind classifies the error.
	Kind Kind
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	if e.Component != "" && e.Op != "" {
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	} else if e.Component != "" {
		prefix = e.Component
	} else if e.Op != "" {
		prefix = e.Op
	}

	if e.Err != nil {
		if prefix != "" {
			return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// NewError creates a new engine error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// NewErrorf creates a new engine error with a formatted message.
func NewErrorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with kind and message context.
// If err is nil, WrapError returns nil.
func WrapError(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// IsKind reports whether err is an engine error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
