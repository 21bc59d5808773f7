// Package errors provides structured error types for tspart.
//
// Every pipeline stage reports failures as an *Error carrying a machine-readable
// Code. Codes survive wrapping with fmt.Errorf("%w"), so the CLI can map any
// error returned by the pipeline to a distinct process exit status.
//
// # Error Codes
//
//   - INPUT_FORMAT: unrecognized or malformed source file
//   - EMPTY_INPUT: the source file contains no points
//   - COORDINATE_RANGE: scaled coordinates overflow the solver's integer range
//   - SOLVER_*: the external solver could not be found, failed, or timed out
//   - INVALID_TOUR: the solver output is not a permutation of the points
//   - WRITE: the SVG output could not be written
//
// # Usage
//
//	err := errors.New(errors.ErrCodeEmptyInput, "%s contains no points", path)
//	if errors.Is(err, errors.ErrCodeEmptyInput) {
//	    // Handle empty input
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeWrite, origErr, "write %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the conversion pipeline.
const (
	// Input errors
	ErrCodeInputFormat     Code = "INPUT_FORMAT"
	ErrCodeEmptyInput      Code = "EMPTY_INPUT"
	ErrCodeCoordinateRange Code = "COORDINATE_RANGE"
	ErrCodeInvalidOption   Code = "INVALID_OPTION"

	// Solver errors
	ErrCodeSolverNotFound  Code = "SOLVER_NOT_FOUND"
	ErrCodeSolverExecution Code = "SOLVER_EXECUTION"
	ErrCodeSolverTimeout   Code = "SOLVER_TIMEOUT"

	// Output errors
	ErrCodeInvalidTour Code = "INVALID_TOUR"
	ErrCodeWrite       Code = "WRITE"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// ParseError identifies the offending line of a text input.
// It is used as the Cause of an INPUT_FORMAT error.
type ParseError struct {
	Line    int    // 1-based line number
	Content string // Raw line content
	Reason  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Content)
}
