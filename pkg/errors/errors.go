// Package errors provides structured error types for gmap.
//
// Errors carry a machine-readable [Code] so that the CLI, the HTTP API and
// the pipeline can agree on how a failure is classified without string
// matching:
//   - INVALID_*: a task request failed validation
//   - NOT_FOUND: a task does not exist in the store
//   - QUEUE_FULL, TASK_IN_FLIGHT: the worker pool refused a submission
//   - EXTERNAL_TOOL, UNRESOLVED_PLAN: a pipeline run could not complete
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidVisType, "unknown visualization type %q", v)
//	if errors.Is(err, errors.ErrCodeInvalidVisType) {
//	    // reject the request
//	}
//
//	err = errors.Wrap(errors.ErrCodeInternal, cause, "save task %s", id)
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
	ErrCodeInvalidInput            Code = "INVALID_INPUT"
	ErrCodeInvalidVisType          Code = "INVALID_VIS_TYPE"
	ErrCodeInvalidClusterAlgorithm Code = "INVALID_CLUSTER_ALGORITHM"
	ErrCodeInvalidLayout           Code = "INVALID_LAYOUT"
	ErrCodeInvalidColorScheme      Code = "INVALID_COLOR_SCHEME"
	ErrCodeInvalidFormat           Code = "INVALID_FORMAT"
	ErrCodeInvalidGraph            Code = "INVALID_GRAPH"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Scheduling errors
	ErrCodeQueueFull    Code = "QUEUE_FULL"
	ErrCodeTaskInFlight Code = "TASK_IN_FLIGHT"

	// Pipeline errors
	ErrCodeExternalTool   Code = "EXTERNAL_TOOL"
	ErrCodeUnresolvedPlan Code = "UNRESOLVED_PLAN"

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
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// IsValidation reports whether err carries one of the INVALID_* codes.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidVisType, ErrCodeInvalidClusterAlgorithm,
		ErrCodeInvalidLayout, ErrCodeInvalidColorScheme, ErrCodeInvalidFormat, ErrCodeInvalidGraph:
		return true
	}
	return false
}
