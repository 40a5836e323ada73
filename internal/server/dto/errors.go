// Package dto defines the JSON request and response types of the HTTP API
// and its error model.
//
// Every response is either {"data": ...} or {"error": ..., "code": ...}. The
// error is a message, or a map of field names to messages when a request
// failed validation.
package dto

import (
	"fmt"
	"maps"
	"net/http"
	"strconv"
)

// ErrorCode is the machine readable classification of an error.
type ErrorCode string

const (
	// ErrorCodeValidationFailed is returned when input data fails validation.
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrorCodeMissingField is returned when a required field is missing.
	ErrorCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrorCodeInvalidFormat is returned when an identifier or parameter is malformed.
	ErrorCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	// ErrorCodeNotFound is returned when a resource is not found.
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrorCodeStorageError is returned when a storage operation fails.
	ErrorCodeStorageError ErrorCode = "STORAGE_ERROR"
	// ErrorCodeInternal is returned when an unexpected server error occurs.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrorCodeUnauthorized is returned when the session is missing or invalid.
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrorCodePayloadTooLarge is returned when the body exceeds the limit.
	ErrorCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
	// ErrorCodeRateLimitExceeded is returned when a client is throttled.
	ErrorCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrorCodeUnavailable is returned when a feature is not configured.
	ErrorCodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrorCodeUpstream is returned when an external service failed.
	ErrorCodeUpstream ErrorCode = "UPSTREAM_ERROR"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	// Error is a string, or a map[string][]string for field validation.
	Error   any            `json:"error"`
	Code    ErrorCode      `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorWithStatus is an error that knows its HTTP representation.
type ErrorWithStatus interface {
	Error() string
	StatusCode() int
	Code() ErrorCode
	Details() map[string]any
	// Fields returns per-field messages, nil unless validation failed.
	Fields() map[string][]string
	// Message is the text shown to the client.
	Message() string
}

// APIError is the concrete ErrorWithStatus.
type APIError struct {
	statusCode int
	code       ErrorCode
	message    string
	fields     map[string][]string
	details    map[string]any
	wrappedErr error
}

// NewAPIError creates an APIError.
func NewAPIError(statusCode int, code ErrorCode, message string) *APIError {
	return &APIError{statusCode: statusCode, code: code, message: message}
}

// WithDetails adds details to the error.
func (e *APIError) WithDetails(details map[string]any) *APIError {
	if e.details == nil {
		e.details = make(map[string]any, len(details))
	}
	maps.Copy(e.details, details)
	return e
}

// WithDetail adds a single detail to the error.
func (e *APIError) WithDetail(key string, value any) *APIError {
	return e.WithDetails(map[string]any{key: value})
}

// Wrap records the underlying cause. It is logged, never sent.
func (e *APIError) Wrap(err error) *APIError {
	e.wrappedErr = err
	return e
}

// Error implements error.
func (e *APIError) Error() string {
	if e.wrappedErr != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrappedErr)
	}
	return e.message
}

// StatusCode returns the HTTP status code.
func (e *APIError) StatusCode() int { return e.statusCode }

// Code returns the error code.
func (e *APIError) Code() ErrorCode { return e.code }

// Details returns additional error details.
func (e *APIError) Details() map[string]any { return e.details }

// Fields returns per-field validation messages.
func (e *APIError) Fields() map[string][]string { return e.fields }

// Message returns the client facing message.
func (e *APIError) Message() string { return e.message }

// Unwrap returns the wrapped error if any.
func (e *APIError) Unwrap() error { return e.wrappedErr }

// Body returns the JSON body for the error.
func Body(e ErrorWithStatus) *ErrorResponse {
	resp := &ErrorResponse{Error: e.Message(), Code: e.Code(), Details: e.Details()}
	if f := e.Fields(); len(f) != 0 {
		resp.Error = f
	}
	return resp
}

// ValidationFailed creates a 400 error carrying per-field messages.
func ValidationFailed(fields map[string][]string) *APIError {
	e := NewAPIError(http.StatusBadRequest, ErrorCodeValidationFailed, "Validation failed.")
	e.fields = fields
	return e
}

// BadRequest creates a 400 error.
func BadRequest(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, ErrorCodeValidationFailed, message)
}

// MissingField creates a 400 error for a missing field.
func MissingField(field string) *APIError {
	return NewAPIError(http.StatusBadRequest, ErrorCodeMissingField, "Missing required field: "+field)
}

// InvalidFormat creates a 400 error for a malformed value.
func InvalidFormat(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, ErrorCodeInvalidFormat, message)
}

// NotFound creates a 404 error.
func NotFound(message string) *APIError {
	return NewAPIError(http.StatusNotFound, ErrorCodeNotFound, message)
}

// StorageError creates a 500 error for a failed store call.
func StorageError(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, ErrorCodeStorageError, message)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *APIError {
	return NewAPIError(http.StatusUnauthorized, ErrorCodeUnauthorized, message)
}

// Internal creates a 500 error.
func Internal(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, ErrorCodeInternal, message)
}

// Unavailable creates a 503 error.
func Unavailable(message string) *APIError {
	return NewAPIError(http.StatusServiceUnavailable, ErrorCodeUnavailable, message)
}

// Upstream creates a 502 error.
func Upstream(message string) *APIError {
	return NewAPIError(http.StatusBadGateway, ErrorCodeUpstream, message)
}

// PayloadTooLarge creates a 413 error.
func PayloadTooLarge(limit int64) *APIError {
	return NewAPIError(http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge,
		"Request body exceeds "+strconv.FormatInt(limit, 10)+" bytes.").WithDetail("limit", limit)
}

// RateLimitExceeded creates a 429 error.
func RateLimitExceeded(retryAfter int) *APIError {
	return NewAPIError(http.StatusTooManyRequests, ErrorCodeRateLimitExceeded,
		"Too many requests, please slow down.").WithDetail("retry_after", retryAfter)
}
