// Package domain defines the core domain models for cachemesh.
package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DomainError represents a business domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "CM-STORE-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Request Errors (REQ)
// ============================================================================

var (
	// ErrMalformedRequest indicates the request body could not be decoded.
	ErrMalformedRequest = NewDomainError("CM-REQ-4000", "malformed request body")

	// ErrUnknownAction indicates the action field is missing or not a known verb.
	ErrUnknownAction = NewDomainError("CM-REQ-4001", "unknown action")

	// ErrMissingKey indicates the key field is required for this action.
	ErrMissingKey = NewDomainError("CM-REQ-4002", "missing required field: key")

	// ErrMissingValue indicates the value field is required for this action.
	ErrMissingValue = NewDomainError("CM-REQ-4003", "missing required field: value")

	// ErrRouteNotFound indicates the requested path is not served.
	ErrRouteNotFound = NewDomainError("CM-REQ-4040", "route not found")
)

// ============================================================================
// Store Instance Errors (STORE)
// ============================================================================

var (
	// ErrInvalidInstanceOptions indicates instance configuration that cannot be honored.
	ErrInvalidInstanceOptions = NewDomainError("CM-STORE-4000", "invalid instance options")

	// ErrInstanceNotFound indicates the requested store instance is not registered.
	ErrInstanceNotFound = NewDomainError("CM-STORE-4040", "store instance not found")

	// ErrDuplicateInstance indicates the instance id is already registered.
	ErrDuplicateInstance = NewDomainError("CM-STORE-4090", "store instance already exists")

	// ErrKeyNotFound indicates the backend has no entry for the key.
	// The dispatcher maps this to an empty success, never a client error.
	ErrKeyNotFound = NewDomainError("CM-KEY-4040", "key not found")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("CM-SYS-5000", "internal server error")

	// ErrStorageError indicates a backend storage failure.
	ErrStorageError = NewDomainError("CM-SYS-5001", "storage error")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("CM-SYS-4290", "too many requests")
)

// Classify maps an error to an HTTP status code and error code.
//
// It is a pure function so the mapping can be tested without a server.
// ErrKeyNotFound is deliberately absent from the table: the dispatcher
// turns a missing key into an empty success before classification runs.
func Classify(err error) (status int, code string) {
	c := GetErrorCode(err)
	switch {
	case c == "":
		return http.StatusInternalServerError, ErrInternalServer.Code
	case strings.HasSuffix(c, "-4040"):
		return http.StatusNotFound, c
	case strings.HasSuffix(c, "-4090"):
		return http.StatusConflict, c
	case strings.HasSuffix(c, "-4290"):
		return http.StatusTooManyRequests, c
	case strings.HasSuffix(c, "-4000"):
		return http.StatusBadRequest, c
	case strings.HasPrefix(c, "CM-REQ-4"):
		return http.StatusBadRequest, c
	case strings.HasPrefix(c, "CM-SYS-5"):
		return http.StatusInternalServerError, c
	default:
		return http.StatusInternalServerError, c
	}
}
