// Package errors provides structured error types for the loci application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Construction-time failures (cycle creation, wrong parent kinds) are fatal
// to the call that produced them and recoverable by the caller. Locus-pass
// failures (timeout, unreachable engine, degenerate system) are absorbed at
// the locus element boundary and degrade to a stale display. Singular
// numeric configurations are never errors at all; they propagate as the
// infinite coordinate sentinel.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidParentTypes, "midpoint wants two points, got %s", kind)
//	if errors.Is(err, errors.ErrCodeInvalidParentTypes) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeUnreachable, origErr, "eliminate %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Construction-time errors
	ErrCodeCyclicDependency   Code = "CYCLIC_DEPENDENCY"
	ErrCodeInvalidParentTypes Code = "INVALID_PARENT_TYPES"
	ErrCodeUnknownElement     Code = "UNKNOWN_ELEMENT"
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidFormat      Code = "INVALID_FORMAT"

	// Locus-pass errors (non-fatal, degrade to stale display)
	ErrCodeTimeout          Code = "TIMEOUT"
	ErrCodeUnreachable      Code = "UNREACHABLE"
	ErrCodeDegenerateSystem Code = "DEGENERATE_SYSTEM"

	// Numeric degeneracy is reported, never thrown
	ErrCodeSingularConfiguration Code = "SINGULAR_CONFIGURATION"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

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
		return e.Message
	}
	return err.Error()
}

// IsLocusFailure reports whether the error belongs to the locus-pass
// category, i.e. the kind that must degrade to a stale display instead of
// aborting numeric updates.
func IsLocusFailure(err error) bool {
	switch GetCode(err) {
	case ErrCodeTimeout, ErrCodeUnreachable, ErrCodeDegenerateSystem:
		return true
	}
	return false
}
