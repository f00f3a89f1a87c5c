package router

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rhuss/hopper/pkg/binding"
)

// Sentinel resolution and composition errors. Resolve failures are always
// recovered into well-formed responses by the dispatcher; they never become
// connection-level faults.
var (
	ErrNotFound           = errors.New("no route matches path")
	ErrMethodNotAllowed   = errors.New("path matches under a different method")
	ErrContinuationReused = errors.New("middleware continuation invoked more than once")
)

// MethodNotAllowedError reports a path that matched registered patterns
// under other methods. It unwraps to ErrMethodNotAllowed.
type MethodNotAllowedError struct {
	Allow []string
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("method not allowed (allow: %s)", strings.Join(e.Allow, ", "))
}

func (e *MethodNotAllowedError) Unwrap() error { return ErrMethodNotAllowed }

// ErrorType categorizes a client-visible error payload.
type ErrorType string

const (
	ErrorTypeBadRequest       ErrorType = "bad_request"
	ErrorTypeUnauthorized     ErrorType = "unauthorized"
	ErrorTypeForbidden        ErrorType = "forbidden"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeMethodNotAllowed ErrorType = "method_not_allowed"
	ErrorTypeValidation       ErrorType = "validation_error"
	ErrorTypeTooManyRequests  ErrorType = "too_many_requests"
	ErrorTypeServerError      ErrorType = "server_error"
)

// APIError is the wire shape of one error payload. Validation failures
// carry the per-field details list.
type APIError struct {
	Type    ErrorType            `json:"type"`
	Message string               `json:"message"`
	Details []binding.FieldError `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorEnvelope wraps an APIError for serialization as the top-level error
// response body.
type ErrorEnvelope struct {
	Error *APIError `json:"error"`
}

// NewBadRequestError creates an APIError for malformed requests.
func NewBadRequestError(message string) *APIError {
	return &APIError{Type: ErrorTypeBadRequest, Message: message}
}

// NewUnauthorizedError creates an APIError for missing or bad credentials.
func NewUnauthorizedError(message string) *APIError {
	return &APIError{Type: ErrorTypeUnauthorized, Message: message}
}

// NewForbiddenError creates an APIError for authenticated but disallowed
// requests.
func NewForbiddenError(message string) *APIError {
	return &APIError{Type: ErrorTypeForbidden, Message: message}
}

// NewNotFoundError creates an APIError for unmatched paths or missing
// resources.
func NewNotFoundError(message string) *APIError {
	return &APIError{Type: ErrorTypeNotFound, Message: message}
}

// NewMethodNotAllowedError creates an APIError for path-matching requests
// under the wrong method.
func NewMethodNotAllowedError(message string) *APIError {
	return &APIError{Type: ErrorTypeMethodNotAllowed, Message: message}
}

// NewValidationError creates an APIError carrying the binder's field
// details.
func NewValidationError(errs *binding.Errors) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Message: "request validation failed",
		Details: errs.Fields,
	}
}

// NewTooManyRequestsError creates an APIError for rate limiting.
func NewTooManyRequestsError(message string) *APIError {
	return &APIError{Type: ErrorTypeTooManyRequests, Message: message}
}

// NewServerError creates an APIError for handler and middleware faults.
func NewServerError(message string) *APIError {
	return &APIError{Type: ErrorTypeServerError, Message: message}
}
