// Package errors provides structured error types for switchyard.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, console, and simulator
//   - Machine-readable error codes for programmatic handling
//   - Verbatim propagation of controller validation messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes map onto the failure taxonomy of the switch control core:
//   - NOT_CONFIGURED: a switch has no servo channel and cannot be toggled
//   - NETWORK_ERROR / TIMEOUT: the remote controller could not be reached
//   - REMOTE_ERROR: the remote controller refused a request
//   - VALIDATION: the remote controller rejected a calibration commit
//   - BUSY / UNKNOWN_SWITCH / SESSION_CLOSED: local protocol guards
//   - LOAD_FAILED: the initial layout or catalog load failed (fatal)
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotConfigured, "switch %s needs calibration", id)
//	if errors.Is(err, errors.ErrCodeNotConfigured) {
//	    // Prompt the operator to calibrate
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "toggle %s", id)
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
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidSwitch  Code = "INVALID_SWITCH"
	ErrCodeInvalidChannel Code = "INVALID_CHANNEL"
	ErrCodeInvalidAngle   Code = "INVALID_ANGLE"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"

	// Remote rejection of a calibration commit
	ErrCodeValidation Code = "VALIDATION"

	// Switch protocol guards
	ErrCodeNotConfigured Code = "NOT_CONFIGURED"
	ErrCodeUnknownSwitch Code = "UNKNOWN_SWITCH"
	ErrCodeBusy          Code = "BUSY"
	ErrCodeSessionClosed Code = "SESSION_CLOSED"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"
	ErrCodeRemote  Code = "REMOTE_ERROR" // controller answered with a non-2xx status

	// Session errors
	ErrCodeLoadFailed Code = "LOAD_FAILED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// Verbatim creates an Error whose message is used exactly as given.
// Use it for text that originates outside the process, such as a
// controller's validation message, so format verbs are never interpreted.
func Verbatim(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
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
