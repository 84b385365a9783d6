// Package apierr provides error classification for the client SDK.
// Every failure surfaced by the SDK carries a Code from the taxonomy below
// plus a Category that drives retry policies.
package apierr

import (
	"errors"
	"fmt"
)

// Code identifies the failure class of an SDK operation.
type Code string

const (
	CodeOffline             Code = "OFFLINE"
	CodeTimeout             Code = "TIMEOUT"
	CodeAuthError           Code = "AUTH_ERROR"
	CodeAPIError            Code = "API_ERROR"
	CodeStorageError        Code = "STORAGE_ERROR"
	CodeDownloadError       Code = "DOWNLOAD_ERROR"
	CodeDownloadCancelled   Code = "DOWNLOAD_CANCELLED"
	CodeGenerationTimeout   Code = "GENERATION_TIMEOUT"
	CodeMissingVoiceID      Code = "MISSING_VOICE_ID"
	CodeCloneError          Code = "CLONE_ERROR"
	CodeVerificationError   Code = "VERIFICATION_ERROR"
	CodeQueueProcessingErr  Code = "QUEUE_PROCESSING_ERROR"
)

// Category determines how errors should be handled by retry logic.
type Category int

const (
	// Recoverable errors should be retried with exponential backoff.
	// Examples: 500 Internal Server Error, network timeouts, connection failures.
	Recoverable Category = iota

	// Irrecoverable errors should fail immediately without retry.
	// Examples: 401 Unauthorized, 403 Forbidden, 400 Bad Request.
	Irrecoverable
)

// String returns a human-readable representation of the category.
func (c Category) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Error wraps a failure with its taxonomy code and categorization metadata.
type Error struct {
	Code       Code
	Category   Category
	StatusCode int    // HTTP status code (0 for non-HTTP errors)
	Message    string // server-supplied or generated description
	Underlying error  // the original error, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s/%s] HTTP %d: %s", e.Code, e.Category, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Code, e.Category, e.Message)
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *Error) Unwrap() error { return e.Underlying }

// New creates an Error with the given code and message. Codes that describe
// user or client mistakes are irrecoverable; connectivity-shaped codes are
// recoverable so queued replays retry them.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Category: categoryFor(code), Message: msg}
}

// Wrap creates an Error around an existing error.
func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Category: categoryFor(code), Message: err.Error(), Underlying: err}
}

func categoryFor(code Code) Category {
	switch code {
	case CodeOffline, CodeTimeout, CodeStorageError, CodeQueueProcessingErr:
		return Recoverable
	default:
		return Irrecoverable
	}
}

// CodeOf extracts the taxonomy code from err, or "" if err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is lets callers match against bare codes: errors.Is(err, apierr.CodeOffline)
// does not compile, so this helper compares explicitly.
func Is(err error, code Code) bool { return CodeOf(err) == code }

// IsIrrecoverable returns true if the error should not be retried.
func IsIrrecoverable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Category == Irrecoverable
	}
	return false
}
