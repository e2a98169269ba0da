// Package errors provides the error type for the Veria SDK.
// Every failure surfaced by the SDK is an *Error carrying a human-readable
// message, a machine-readable code, and, when an HTTP response was received,
// the status code.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes produced by the SDK itself. Non-2xx responses may instead carry
// a code supplied by the service (e.g. RATE_LIMIT), so callers should treat
// codes as open strings.
const (
	// CodeMissingAPIKey is returned at construction time when no API key
	// was provided.
	CodeMissingAPIKey = "MISSING_API_KEY"

	// CodeTimeout is returned when a request did not complete within the
	// configured timeout. No HTTP status is present.
	CodeTimeout = "TIMEOUT"

	// CodeNetworkError is returned for any other transport-level failure
	// (DNS, connection refused, TLS). No HTTP status is present.
	CodeNetworkError = "NETWORK_ERROR"

	// CodeRequestFailed is the fallback code for a non-2xx response whose
	// body did not supply a code of its own.
	CodeRequestFailed = "REQUEST_FAILED"

	// CodeDecodeError is returned when a 2xx response body is malformed or
	// missing required fields.
	CodeDecodeError = "DECODE_ERROR"

	// CodeClientClosed is returned when Screen is called after Close.
	CodeClientClosed = "CLIENT_CLOSED"
)

// Error is the single error shape of the SDK.
type Error struct {
	// Message is a human-readable description.
	Message string `json:"message"`

	// Code is a machine-readable error code.
	Code string `json:"code"`

	// StatusCode is the HTTP status of the response, or 0 when no HTTP
	// response was received (construction and transport failures).
	StatusCode int `json:"status_code,omitempty"`

	// RequestID is the X-Request-ID the client attached to the request,
	// for correlating with service-side logs.
	RequestID string `json:"request_id,omitempty"`

	// Err is the underlying cause, if any (transport errors, decode errors).
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("veria: [%s] %s (status %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("veria: [%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with a message and code and no HTTP status.
func New(message, code string) *Error {
	return &Error{Message: message, Code: code}
}

// =============================================================================
// Checkers
// =============================================================================

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Code returns the error code of err, or "" if err is not an SDK error.
func Code(err error) string {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// IsMissingAPIKey reports whether err is a missing-API-key error.
func IsMissingAPIKey(err error) bool {
	return Code(err) == CodeMissingAPIKey
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	return Code(err) == CodeTimeout
}

// IsNetworkError reports whether err is a transport-level failure other
// than a timeout.
func IsNetworkError(err error) bool {
	return Code(err) == CodeNetworkError
}

// IsDecodeError reports whether err is a malformed-response error.
func IsDecodeError(err error) bool {
	return Code(err) == CodeDecodeError
}

// IsRateLimited reports whether err is a 429 response.
func IsRateLimited(err error) bool {
	if e, ok := AsError(err); ok {
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// IsAuthentication reports whether err is a 401 response.
func IsAuthentication(err error) bool {
	if e, ok := AsError(err); ok {
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// IsServerError reports whether err is a 5xx response.
func IsServerError(err error) bool {
	if e, ok := AsError(err); ok {
		return e.StatusCode >= 500
	}
	return false
}
