// Package domainerrors defines the coded errors exchanged between services and
// transport. Stores return sentinel errors (pkg/platform/sentinel); services
// translate those into coded errors here so handlers can map them to HTTP
// statuses without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a stable, user-visible error kind.
type Code string

const (
	// CodeInvalidInput marks malformed requests: bad hash length or encoding,
	// non-positive page or limit, oversized fields. Rejected before any ledger call.
	CodeInvalidInput Code = "invalid_input"

	// CodeNotFound means no record exists at the derived address.
	CodeNotFound Code = "not_found"

	// CodeDuplicate means the derived address is already occupied. Registration
	// is first-write-wins, so this is meaningful and never retried.
	CodeDuplicate Code = "duplicate_registration"

	// CodeUnavailable surfaces ledger transport or consensus failures. Callers
	// own the retry policy; the registry performs no automatic retries.
	CodeUnavailable Code = "ledger_unavailable"

	// CodeUnauthorized means the caller lacks write capability.
	CodeUnauthorized Code = "unauthorized"

	// CodeInternal covers everything that should not leak details to callers.
	CodeInternal Code = "internal"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with a human-readable message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error that preserves the underlying cause for logs and
// errors.Is chains while exposing only the code and message to callers.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps error codes to HTTP statuses for the transport layer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicate:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
