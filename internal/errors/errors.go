// Package errors defines the service error taxonomy and its HTTP mapping.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure.
type Code string

const (
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeBadRequest     Code = "BAD_REQUEST"
	CodeUnknownCommand Code = "UNKNOWN_COMMAND"
	CodeInvalidPayload Code = "INVALID_PAYLOAD"
	CodeUpstreamFailed Code = "UPSTREAM_FAILED"
	CodeInternal       Code = "INTERNAL"
)

// ServiceError is an error with a sanitized user-visible message and an
// HTTP status. The wrapped cause stays in logs and never reaches callers.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a detail field and returns the error for chaining.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Unauthorized reports a failed or missing request signature.
func Unauthorized(message string) *ServiceError {
	return &ServiceError{Code: CodeUnauthorized, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// BadRequest reports a structurally invalid request.
func BadRequest(message string) *ServiceError {
	return &ServiceError{Code: CodeBadRequest, Message: message, HTTPStatus: http.StatusBadRequest}
}

// UnknownCommand reports a command name with no registered handler.
func UnknownCommand(name string) *ServiceError {
	e := &ServiceError{Code: CodeUnknownCommand, Message: "Unknown command", HTTPStatus: http.StatusBadRequest}
	return e.WithDetails("command", name)
}

// InvalidPayload reports a command invocation missing a required field.
func InvalidPayload(message string) *ServiceError {
	return &ServiceError{Code: CodeInvalidPayload, Message: message, HTTPStatus: http.StatusBadRequest}
}

// Upstream reports a failed call to an external collaborator.
func Upstream(message string, err error) *ServiceError {
	return &ServiceError{Code: CodeUpstreamFailed, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err}
}

// Internal reports an unexpected failure.
func Internal(message string, err error) *ServiceError {
	return &ServiceError{Code: CodeInternal, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err}
}

// GetServiceError returns the ServiceError in err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se
	}
	return nil
}
