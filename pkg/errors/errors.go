// Package errors provides structured error types for the curator pipeline.
//
// This package defines error codes and typed errors that let the retry
// policy, the source clients, and the orchestrator agree on what a failure
// means without string matching:
//   - [Error] carries a machine-readable [Code] and an optional cause
//   - [RateLimitError] signals a local ceiling or an upstream 429
//   - [APIError] carries a non-2xx HTTP status (timeouts map to 408)
//   - [ParseError] wraps a malformed upstream payload
//   - [IdentifierMissingError] marks a record that cannot be routed
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "invalid arXiv id: %s", id)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	if code := errors.StatusCode(err); code >= 400 && code < 500 {
//	    // Client error, not worth retrying
//	}
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidIdentifier Code = "INVALID_IDENTIFIER"
	ErrCodeInvalidRecord     Code = "INVALID_RECORD"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeIdentifierMissing Code = "IDENTIFIER_MISSING"

	// Upstream errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"
	ErrCodeUpstream    Code = "UPSTREAM_ERROR"
	ErrCodeParse       Code = "PARSE_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// ErrNotFound is matched by any [APIError] with status 404.
var ErrNotFound = errors.New("resource not found")

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
// It unwraps the error chain looking for a coded error with a matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Typed errors report their category code. Returns empty string otherwise.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var coded interface{ Code() Code }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

// RateLimitError is returned when a local rate ceiling is hit or an upstream
// answers 429. RetryAfter is zero when no hint is known.
type RateLimitError struct {
	Source     string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	prefix := "rate limited"
	if e.Source != "" {
		prefix = e.Source + ": rate limited"
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: retry after %s", prefix, e.RetryAfter.Round(time.Millisecond))
	}
	return prefix
}

// Code returns the error code for this error type.
func (e *RateLimitError) Code() Code { return ErrCodeRateLimited }

// APIError is a non-2xx upstream response. Transport timeouts are reported
// with StatusCode 408.
type APIError struct {
	StatusCode int
	URL        string
	Cause      error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("upstream returned %d", e.StatusCode)
	if e.URL != "" {
		msg += " for " + e.URL
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the transport cause, if any.
func (e *APIError) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, ErrNotFound) true for 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}

// Code returns the error code for this error type.
func (e *APIError) Code() Code {
	switch {
	case e.StatusCode == 404:
		return ErrCodeNotFound
	case e.StatusCode == 408:
		return ErrCodeTimeout
	case e.StatusCode == 429:
		return ErrCodeRateLimited
	}
	return ErrCodeUpstream
}

// ParseError wraps a payload that could not be decoded.
type ParseError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Source, e.Err)
}

// Unwrap returns the decode error.
func (e *ParseError) Unwrap() error { return e.Err }

// Code returns the error code for this error type.
func (e *ParseError) Code() Code { return ErrCodeParse }

// IdentifierMissingError marks a record that lacks the field its source
// client needs. Such records are skipped, never fetched.
type IdentifierMissingError struct {
	Kind  string
	Field string
	ID    string
}

// Error implements the error interface.
func (e *IdentifierMissingError) Error() string {
	return fmt.Sprintf("%s %q has no %s", e.Kind, e.ID, e.Field)
}

// Code returns the error code for this error type.
func (e *IdentifierMissingError) Code() Code { return ErrCodeIdentifierMissing }

// StatusCode returns the HTTP status associated with err, or 0 if none.
// Rate-limit errors report 429.
func StatusCode(err error) int {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return 429
	}
	var api *APIError
	if errors.As(err, &api) {
		return api.StatusCode
	}
	return 0
}

// IsRateLimit reports whether err is a [RateLimitError].
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsParse reports whether err is a [ParseError].
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsIdentifierMissing reports whether err is an [IdentifierMissingError].
func IsIdentifierMissing(err error) bool {
	var im *IdentifierMissingError
	return errors.As(err, &im)
}
