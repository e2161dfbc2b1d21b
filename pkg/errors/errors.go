// Package errors defines custom error types and error handling utilities for the risk engine.
// This package provides structured error types that map to API error codes and HTTP status codes.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/turtacn/riskengine/pkg/constants"
)

// ================================================================================
// Base Error Interface
// ================================================================================

// AppError represents a structured error with additional metadata
type AppError interface {
	error

	// Code returns the machine-readable error code
	Code() constants.ErrorCode

	// HTTPStatus returns the HTTP status code
	HTTPStatus() int

	// Description returns a human-readable description
	Description() string

	// Unwrap returns the underlying error for error chain support
	Unwrap() error

	// WithCause adds a cause error to the error chain
	WithCause(cause error) AppError

	// WithMetadata adds additional context metadata
	WithMetadata(key string, value interface{}) AppError

	// Metadata returns all metadata
	Metadata() map[string]interface{}
}

// ================================================================================
// Base Error Implementation
// ================================================================================

// baseError is the internal implementation of AppError
type baseError struct {
	code        constants.ErrorCode
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
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Code returns the error code
func (e *baseError) Code() constants.ErrorCode {
	return e.code
}

// HTTPStatus returns the HTTP status code
func (e *baseError) HTTPStatus() int {
	return e.httpStatus
}

// Description returns the error description
func (e *baseError) Description() string {
	return e.description
}

// Unwrap returns the underlying cause error
func (e *baseError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause error to the error chain
func (e *baseError) WithCause(cause error) AppError {
	e.cause = cause
	return e
}

// WithMetadata adds additional context metadata
func (e *baseError) WithMetadata(key string, value interface{}) AppError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

// Metadata returns all metadata
func (e *baseError) Metadata() map[string]interface{} {
	return e.metadata
}

// ================================================================================
// Error Constructor
// ================================================================================

// NewError creates a new AppError with the specified parameters
func NewError(code constants.ErrorCode, httpStatus int, description string, message string) AppError {
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

// ErrValidation creates a validation_error for malformed input
func ErrValidation(message string) AppError {
	return NewError(
		constants.ErrCodeValidation,
		http.StatusBadRequest,
		"The request contains an invalid entity type, entity id, assessment type or parameter.",
		message,
	)
}

// ErrNotFound creates a not_found error for the given resource kind and id
func ErrNotFound(resource string, id string) AppError {
	return NewError(
		constants.ErrCodeNotFound,
		http.StatusNotFound,
		"The requested resource does not exist.",
		fmt.Sprintf("%s %q not found", resource, id),
	).WithMetadata("resource", resource).WithMetadata("id", id)
}

// ErrComputation creates a computation_error for a failed factor rule
func ErrComputation(category string, message string) AppError {
	return NewError(
		constants.ErrCodeComputation,
		http.StatusInternalServerError,
		"A risk factor could not be computed.",
		message,
	).WithMetadata("category", category)
}

// ErrAggregation creates an aggregation_error for assessments without any scored factor
func ErrAggregation(message string) AppError {
	return NewError(
		constants.ErrCodeAggregation,
		http.StatusUnprocessableEntity,
		"No risk factor produced a score.",
		message,
	)
}

// ErrNotification creates a notification_error for a failed delivery channel
func ErrNotification(channel string, message string) AppError {
	return NewError(
		constants.ErrCodeNotification,
		http.StatusBadGateway,
		"A notification could not be delivered.",
		message,
	).WithMetadata("channel", channel)
}

// ErrConflict creates an invalid_transition error for an illegal alert state change
func ErrConflict(message string) AppError {
	return NewError(
		constants.ErrCodeInvalidTransition,
		http.StatusConflict,
		"The requested state change is not allowed from the current state.",
		message,
	)
}

// ErrRateLimitExceeded creates a rate_limit_exceeded error
func ErrRateLimitExceeded(message string) AppError {
	return NewError(
		constants.ErrCodeRateLimitExceeded,
		http.StatusTooManyRequests,
		"Too many requests. Retry later.",
		message,
	)
}

// ErrUnavailable creates a temporarily_unavailable error
func ErrUnavailable(message string) AppError {
	return NewError(
		constants.ErrCodeUnavailable,
		http.StatusServiceUnavailable,
		"A dependency is temporarily unavailable.",
		message,
	)
}

// ErrInternal creates an internal_error for storage and infrastructure failures
func ErrInternal(message string) AppError {
	return NewError(
		constants.ErrCodeInternal,
		http.StatusInternalServerError,
		"An unexpected error occurred.",
		message,
	)
}

// ================================================================================
// Error Validation Utilities
// ================================================================================

// AsAppError finds the first AppError in err's chain
func AsAppError(err error) (AppError, bool) {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func hasCode(err error, code constants.ErrorCode) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code() == code
	}
	return false
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return hasCode(err, constants.ErrCodeNotFound)
}

// IsConflict checks if an error is an invalid transition or lost update
func IsConflict(err error) bool {
	return hasCode(err, constants.ErrCodeInvalidTransition)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return hasCode(err, constants.ErrCodeValidation)
}

// IsTransient checks if an error is transient and can be retried
func IsTransient(err error) bool {
	return hasCode(err, constants.ErrCodeUnavailable) || hasCode(err, constants.ErrCodeNotification)
}

// ShouldLogError determines if an error should be logged based on severity
func ShouldLogError(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		// Don't log client errors (4xx) except rate limiting
		status := appErr.HTTPStatus()
		return status >= 500 || status == http.StatusTooManyRequests
	}
	return true
}

// ================================================================================
// Error Response Builder
// ================================================================================

// ErrorResponse represents the JSON structure for error responses
type ErrorResponse struct {
	Error            string                 `json:"error"`
	ErrorDescription string                 `json:"error_description"`
	Message          string                 `json:"message,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// ToErrorResponse converts an AppError to an ErrorResponse
func ToErrorResponse(err AppError) *ErrorResponse {
	resp := &ErrorResponse{
		Error:            string(err.Code()),
		ErrorDescription: err.Description(),
		Metadata:         err.Metadata(),
	}
	if be, ok := err.(*baseError); ok {
		resp.Message = be.message
	}
	return resp
}

// ToGenericErrorResponse converts any error to an ErrorResponse and HTTP status
func ToGenericErrorResponse(err error) (int, *ErrorResponse) {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus(), ToErrorResponse(appErr)
	}

	// Fallback to generic server error
	return http.StatusInternalServerError, &ErrorResponse{
		Error:            string(constants.ErrCodeInternal),
		ErrorDescription: "An unexpected error occurred",
	}
}
