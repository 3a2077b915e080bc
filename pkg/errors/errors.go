// Package errors defines custom error types and error handling utilities for the Sentinel service.
// This package provides structured error types that carry a stable code and an HTTP status.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error code.
type Code string

const (
	CodeConfiguration     Code = "configuration_error"
	CodeNotFound          Code = "not_found"
	CodeInvalidRequest    Code = "invalid_request"
	CodeUnauthorized      Code = "unauthorized"
	CodeRateLimitExceeded Code = "rate_limit_exceeded"
	CodeInternal          Code = "internal_error"
)

// ================================================================================
// Base Error Interface
// ================================================================================

// SentinelError represents a structured error with additional metadata
type SentinelError interface {
	error

	// Code returns the stable error code
	Code() Code

	// HTTPStatus returns the HTTP status code
	HTTPStatus() int

	// Description returns a human-readable description
	Description() string

	// Unwrap returns the underlying error for error chain support
	Unwrap() error

	// WithCause adds a cause error to the error chain
	WithCause(cause error) SentinelError

	// WithMetadata adds additional context metadata
	WithMetadata(key string, value interface{}) SentinelError

	// Metadata returns all metadata
	Metadata() map[string]interface{}
}

// ================================================================================
// Base Error Implementation
// ================================================================================

// baseError is the internal implementation of SentinelError
type baseError struct {
	code        Code
	httpStatus  int
	description string
	message     string
	cause       error
	metadata    map[string]interface{}
}

// Error implements the error interface
func (e *baseError) Error() string {
	msg := e.message
	if msg == "" {
		msg = e.description
	}
	if e.cause != nil {
		return msg + ": " + e.cause.Error()
	}
	return msg
}

func (e *baseError) Code() Code {
	return e.code
}

func (e *baseError) HTTPStatus() int {
	return e.httpStatus
}

func (e *baseError) Description() string {
	return e.description
}

func (e *baseError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause error to the error chain
func (e *baseError) WithCause(cause error) SentinelError {
	e.cause = cause
	return e
}

// WithMetadata adds additional context metadata
func (e *baseError) WithMetadata(key string, value interface{}) SentinelError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

func (e *baseError) Metadata() map[string]interface{} {
	return e.metadata
}

// ================================================================================
// Error Constructor
// ================================================================================

// NewError creates a new SentinelError with the specified parameters
func NewError(code Code, httpStatus int, description string, message string) SentinelError {
	return &baseError{
		code:        code,
		httpStatus:  httpStatus,
		description: description,
		message:     message,
		metadata:    make(map[string]interface{}),
	}
}

// ================================================================================
// Predefined Error Constructors
// ================================================================================

// ErrConfiguration creates a configuration error. These are fatal at construction time.
func ErrConfiguration(message string) SentinelError {
	return NewError(
		CodeConfiguration,
		http.StatusInternalServerError,
		"The service configuration is invalid.",
		message,
	)
}

// ErrProfileNotFound creates a not found error for an absent (tenant, client) profile
func ErrProfileNotFound(tenantID, clientID string) SentinelError {
	return NewError(
		CodeNotFound,
		http.StatusNotFound,
		"Profile not found",
		fmt.Sprintf("profile not found: tenant=%s client=%s", tenantID, clientID),
	).WithMetadata("tenant_id", tenantID).
		WithMetadata("client_id", clientID)
}

// ErrInvalidRequest creates an invalid_request error
func ErrInvalidRequest(message string) SentinelError {
	return NewError(
		CodeInvalidRequest,
		http.StatusBadRequest,
		"The request is missing a required parameter, includes an invalid parameter value, or is otherwise malformed.",
		message,
	)
}

// ErrMissingRequiredParameter creates a missing required parameter error
func ErrMissingRequiredParameter(paramName string) SentinelError {
	return ErrInvalidRequest(fmt.Sprintf("Missing required parameter: %s", paramName)).
		WithMetadata("parameter", paramName)
}

// ErrUnauthorized creates an unauthorized error
func ErrUnauthorized(message string) SentinelError {
	return NewError(
		CodeUnauthorized,
		http.StatusUnauthorized,
		"The request could not be authenticated.",
		message,
	)
}

// ErrRateLimitExceeded creates a rate limit exceeded error
func ErrRateLimitExceeded(scope string) SentinelError {
	return NewError(
		CodeRateLimitExceeded,
		http.StatusTooManyRequests,
		"Rate limit exceeded. Please try again later.",
		fmt.Sprintf("rate limit exceeded for %s", scope),
	).WithMetadata("scope", scope)
}

// ErrInternal creates an internal error
func ErrInternal(message string) SentinelError {
	return NewError(
		CodeInternal,
		http.StatusInternalServerError,
		"The server encountered an unexpected condition.",
		message,
	)
}

// ================================================================================
// Helpers
// ================================================================================

// AsSentinelError extracts a SentinelError from an error chain
func AsSentinelError(err error) (SentinelError, bool) {
	var se SentinelError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// WrapError wraps an arbitrary error with a code and message
func WrapError(err error, code Code, message string) SentinelError {
	if err == nil {
		return nil
	}
	status := http.StatusInternalServerError
	if se, ok := AsSentinelError(err); ok {
		status = se.HTTPStatus()
	}
	return NewError(code, status, message, message).WithCause(err)
}

// IsNotFoundError reports whether err carries the not_found code
func IsNotFoundError(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsConfigurationError reports whether err carries the configuration_error code
func IsConfigurationError(err error) bool {
	return hasCode(err, CodeConfiguration)
}

func hasCode(err error, code Code) bool {
	se, ok := AsSentinelError(err)
	return ok && se.Code() == code
}

// HTTPStatusOf returns the HTTP status for err, defaulting to 500
func HTTPStatusOf(err error) int {
	if se, ok := AsSentinelError(err); ok && se.HTTPStatus() != 0 {
		return se.HTTPStatus()
	}
	return http.StatusInternalServerError
}

//Personal.AI order the ending
