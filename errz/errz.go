// Package errz defines structured error types raised by the tapevm virtual
// machine, carrying the failing instruction position for diagnostics.
package errz

import (
	"bytes"
	"fmt"
	"strings"
)

// ErrorKind represents the category of a machine error.
type ErrorKind int

const (
	// ErrOutOfBounds indicates the data pointer moved outside the tape.
	ErrOutOfBounds ErrorKind = iota
	// ErrUnmatchedBracket indicates a [ or ] with no partner in the program.
	ErrUnmatchedBracket
	// ErrInputExhausted indicates an input read with no bytes remaining.
	ErrInputExhausted
	// ErrStepLimit indicates the configured instruction budget was exceeded.
	ErrStepLimit
	// ErrHalted indicates execution was stopped externally, by context
	// cancellation or an observer.
	ErrHalted
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrOutOfBounds:
		return "out of bounds"
	case ErrUnmatchedBracket:
		return "unmatched bracket"
	case ErrInputExhausted:
		return "input exhausted"
	case ErrStepLimit:
		return "step limit exceeded"
	case ErrHalted:
		return "halted"
	default:
		return "error"
	}
}

// FriendlyError is an interface for errors that have a human friendly
// message in addition to the lower level default error message.
type FriendlyError interface {
	Error() string
	FriendlyErrorMessage() string
}

// MachineError is a structured error with the failing instruction position
// and an optional source snippet for actionable diagnostics.
type MachineError struct {
	Kind        ErrorKind
	Message     string
	Position    int    // byte offset of the failing instruction, -1 if unknown
	Instruction byte   // the instruction being executed, 0 if unknown
	Source      string // full program source, used for snippet rendering
	Cause       error
}

// Error implements the error interface.
func (e *MachineError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("%s: %s", e.Kind.String(), e.Message)
	}
	return fmt.Sprintf("%s: %s (position %d)", e.Kind.String(), e.Message, e.Position)
}

// Unwrap returns the underlying cause of the error.
func (e *MachineError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a MachineError of the same kind, so callers
// can match with errors.Is against a bare kind sentinel.
func (e *MachineError) Is(target error) bool {
	t, ok := target.(*MachineError)
	return ok && t.Kind == e.Kind
}

// IsFatal returns whether the error aborts execution. Input exhaustion is
// fatal only when the machine is configured to treat it that way, in which
// case it is surfaced as an error at all; every surfaced kind is fatal.
func (e *MachineError) IsFatal() bool {
	return true
}

// FriendlyErrorMessage returns a human-friendly message with the source line
// containing the failing instruction and a caret underneath it.
func (e *MachineError) FriendlyErrorMessage() string {
	var msg bytes.Buffer
	msg.WriteString(e.Error())
	msg.WriteString("\n")
	line, col := e.snippet()
	if line != "" {
		msg.WriteString(" | ")
		msg.WriteString(line)
		msg.WriteString("\n")
		msg.WriteString(" | ")
		msg.WriteString(strings.Repeat(" ", col))
		msg.WriteString("^\n")
	}
	return msg.String()
}

// snippet returns the source line containing Position and the column of the
// failing instruction within it.
func (e *MachineError) snippet() (string, int) {
	if e.Source == "" || e.Position < 0 || e.Position >= len(e.Source) {
		return "", 0
	}
	start := strings.LastIndexByte(e.Source[:e.Position], '\n') + 1
	end := strings.IndexByte(e.Source[e.Position:], '\n')
	if end < 0 {
		end = len(e.Source)
	} else {
		end += e.Position
	}
	return e.Source[start:end], e.Position - start
}

// New creates a new MachineError.
func New(kind ErrorKind, position int, format string, args ...any) *MachineError {
	return &MachineError{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Position: position,
	}
}

// WithSource attaches the program source for snippet rendering.
func (e *MachineError) WithSource(source string) *MachineError {
	e.Source = source
	return e
}

// WithInstruction records the instruction being executed when the error
// occurred.
func (e *MachineError) WithInstruction(instruction byte) *MachineError {
	e.Instruction = instruction
	return e
}

// WithCause wraps the error with a cause.
func (e *MachineError) WithCause(cause error) *MachineError {
	e.Cause = cause
	return e
}
