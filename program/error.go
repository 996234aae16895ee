package program

import "fmt"

// ErrorKind classifies program construction errors.
type ErrorKind uint8

const (
	// NoInstructions indicates Build was called on an empty builder.
	NoInstructions ErrorKind = iota

	// NoMatchInstruction indicates the program contains no Match
	// instruction and could never report a match.
	NoMatchInstruction

	// TooManyInstructions indicates the instruction count exceeds the
	// 32-bit program counter encoding.
	TooManyInstructions

	// InvalidTarget indicates an instruction jumps outside the program.
	InvalidTarget

	// InvalidStart indicates the entry point is outside the program.
	InvalidStart

	// InvalidSizeLimit indicates a negative cache byte budget.
	InvalidSizeLimit
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case NoInstructions:
		return "NoInstructions"
	case NoMatchInstruction:
		return "NoMatchInstruction"
	case TooManyInstructions:
		return "TooManyInstructions"
	case InvalidTarget:
		return "InvalidTarget"
	case InvalidStart:
		return "InvalidStart"
	case InvalidSizeLimit:
		return "InvalidSizeLimit"
	default:
		return fmt.Sprintf("UnknownErrorKind(%d)", k)
	}
}

// ProgramError is returned by Builder.Build when the assembled program
// is not executable.
type ProgramError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ProgramError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *ProgramError) Unwrap() error {
	return e.Cause
}

// Is matches two ProgramErrors by Kind, so callers can test against the
// sentinel values below with errors.Is.
func (e *ProgramError) Is(target error) bool {
	t, ok := target.(*ProgramError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel values for errors.Is comparisons.
var (
	ErrNoInstructions      = &ProgramError{Kind: NoInstructions, Message: "program has no instructions"}
	ErrNoMatchInstruction  = &ProgramError{Kind: NoMatchInstruction, Message: "program has no match instruction"}
	ErrTooManyInstructions = &ProgramError{Kind: TooManyInstructions, Message: "program exceeds 32-bit pc encoding"}
	ErrInvalidTarget       = &ProgramError{Kind: InvalidTarget, Message: "instruction target out of range"}
	ErrInvalidStart        = &ProgramError{Kind: InvalidStart, Message: "entry point out of range"}
	ErrInvalidSizeLimit    = &ProgramError{Kind: InvalidSizeLimit, Message: "cache size limit must not be negative"}
)
