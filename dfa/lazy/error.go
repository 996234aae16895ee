package lazy

import "fmt"

// ErrorKind classifies engine construction errors. Search outcomes are
// never errors; they are Results.
type ErrorKind uint8

const (
	// InvalidConfig indicates configuration validation failed.
	InvalidConfig ErrorKind = iota

	// UnsupportedProgram indicates the program cannot run on this
	// engine (too many instructions for the pointer encoding, or no
	// cache budget).
	UnsupportedProgram
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case InvalidConfig:
		return "InvalidConfig"
	case UnsupportedProgram:
		return "UnsupportedProgram"
	default:
		return fmt.Sprintf("UnknownErrorKind(%d)", k)
	}
}

// EngineError represents a construction-time failure.
type EngineError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is matches EngineErrors by Kind for errors.Is.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel values for errors.Is comparisons.
var (
	ErrInvalidConfig      = &EngineError{Kind: InvalidConfig, Message: "invalid engine configuration"}
	ErrUnsupportedProgram = &EngineError{Kind: UnsupportedProgram, Message: "program cannot run on the lazy engine"}
)
