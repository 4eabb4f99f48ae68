// Package errors provides structured error types for stackresolve.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code] so that the CLI and the HTTP API can report it consistently:
//
//   - VERSION_PARSE: a malformed version range or constraint
//   - DEPENDENCY_COLLECTION: the graph for a root could not be built
//   - DEPENDENCY_RESOLUTION: a required node could not be materialized
//   - ARTIFACT_TRANSFER / ARTIFACT_NOT_FOUND / CHECKSUM_FAILURE: download failures
//   - INVALID_*: input validation failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeVersionParse, "unbounded range: %s", spec)
//	if errors.Is(err, errors.ErrCodeVersionParse) {
//	    // report a user error
//	}
//
//	err := errors.Wrap(errors.ErrCodeArtifactTransfer, cause, "download %s", a)
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
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidCoordinate Code = "INVALID_COORDINATE"
	ErrCodeInvalidPath       Code = "INVALID_PATH"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"

	// Version model
	ErrCodeVersionParse Code = "VERSION_PARSE"

	// Collection and resolution
	ErrCodeDependencyCollection Code = "DEPENDENCY_COLLECTION"
	ErrCodeDependencyResolution Code = "DEPENDENCY_RESOLUTION"
	ErrCodeVersionResolution    Code = "VERSION_RESOLUTION"
	ErrCodeDescriptorRead       Code = "DESCRIPTOR_READ"

	// Transfers
	ErrCodeArtifactTransfer Code = "ARTIFACT_TRANSFER"
	ErrCodeArtifactNotFound Code = "ARTIFACT_NOT_FOUND"
	ErrCodeChecksumFailure  Code = "CHECKSUM_FAILURE"
	ErrCodeOffline          Code = "OFFLINE"

	// Lookups
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeReportNotFound Code = "REPORT_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

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

// Is reports whether any *Error in err's chain carries the given code.
// A resolution failure wrapping a transfer failure matches both codes.
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

// GetCode extracts the outermost error code from an error, if available.
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

// ChecksumError describes a downloaded file whose digest did not match the
// published checksum.
type ChecksumError struct {
	File      string
	Algorithm string
	Expected  string
	Actual    string
}

// Error implements the error interface.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s checksum mismatch for %s: expected %s, got %s", e.Algorithm, e.File, e.Expected, e.Actual)
}

// Code returns the error code for this error type.
func (e *ChecksumError) Code() Code {
	return ErrCodeChecksumFailure
}
