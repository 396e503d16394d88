// Package errors provides structured error types for the flowgrid engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and embedding callers
//   - Machine-readable error codes for programmatic handling
//   - User-friendly diagnostics naming the originating node or edge
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_* / PARSE_ERROR: malformed input graphs or source text
//   - UNSUPPORTED: shape or direction combination the engine cannot lay out
//   - FORCED_CROSSING / UNKNOWN_SHAPE: warnings; the diagram is still emitted
//   - INVARIANT_VIOLATION: post-layout checks failed; indicates an engine bug
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "unknown node %q", id)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeParse, origErr, "line %d", line)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidDirection Code = "INVALID_DIRECTION"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeParse            Code = "PARSE_ERROR"

	// Capability errors
	ErrCodeUnsupported Code = "UNSUPPORTED"

	// Router warnings (non-fatal; accumulated on the layout report)
	ErrCodeForcedCrossing Code = "FORCED_CROSSING"
	ErrCodeUnknownShape   Code = "UNKNOWN_SHAPE"

	// Engine invariant failures (fatal; indicates a bug, not bad input)
	ErrCodeInvariantViolation Code = "INVARIANT_VIOLATION"

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
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
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
		return e.Message
	}
	return err.Error()
}

// Warning reports whether the error is a non-fatal diagnostic that should
// be accumulated on the layout report rather than abort the render.
func Warning(err error) bool {
	switch GetCode(err) {
	case ErrCodeForcedCrossing, ErrCodeUnknownShape:
		return true
	}
	return false
}
