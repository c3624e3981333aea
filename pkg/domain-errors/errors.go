// Package domainerrors defines the coded error type shared by services and
// transport. Stores speak in pkg/platform/sentinel errors; services translate
// those into coded errors here; handlers translate codes into HTTP statuses.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a closed enumeration of domain error categories.
type Code string

const (
	// CodeNotFound: a referenced entity (member, pass type, provider) is absent.
	CodeNotFound Code = "not_found"
	// CodeConflict: uniqueness violation or "member already has an active pass".
	CodeConflict Code = "conflict"
	// CodeThrottled: check-in cooldown window has not elapsed yet.
	CodeThrottled Code = "throttled"
	// CodeBadRequest: malformed or invalid input.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized: missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden: caller lacks the role for the operation.
	CodeForbidden Code = "forbidden"
	// CodeInvariantViolation: a domain invariant would be broken.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal: unexpected storage or infrastructure failure.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. RetryAfter is populated only for
// CodeThrottled so clients can render a countdown.
type Error struct {
	Code       Code
	Message    string
	RetryAfter int // seconds, CodeThrottled only
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with a human-readable message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// Throttled builds a CodeThrottled error carrying the seconds the caller must
// wait before retrying.
func Throttled(retryAfter int, message string) *Error {
	return &Error{Code: CodeThrottled, Message: message, RetryAfter: retryAfter}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// GetRetryAfter extracts the retry-after seconds from a throttled error,
// returning 0 for any other error.
func GetRetryAfter(err error) int {
	var de *Error
	if errors.As(err, &de) && de.Code == CodeThrottled {
		return de.RetryAfter
	}
	return 0
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusBadRequest // unknown card ids are client mistakes, not 404 resources
	case CodeConflict:
		return http.StatusConflict
	case CodeThrottled:
		return http.StatusTooManyRequests
	case CodeBadRequest, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
