package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// Error codes used across the application
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeStorage     = "STORAGE_ERROR"
	CodeGateway     = "GATEWAY_ERROR"
	CodeRateLimited = "RATE_LIMIT_EXCEEDED"
	CodeServer      = "SERVER_ERROR"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Stack      string `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewError creates a new application error
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Stack:      string(debug.Stack()),
	}
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(code string, message string) *AppError {
	return NewError(http.StatusBadRequest, code, message)
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(code string, message string) *AppError {
	return NewError(http.StatusNotFound, code, message)
}

// NewInternalServerError creates a 500 Internal Server Error
func NewInternalServerError(code string, message string) *AppError {
	return NewError(http.StatusInternalServerError, code, message)
}

// NewValidationError creates a 400 error for a rejected message or request.
// Details carries per-field errors for the response body.
func NewValidationError(message string, details any) *AppError {
	appErr := NewBadRequestError(CodeValidation, message)
	appErr.Details = details
	return appErr
}

// NewStorageError wraps a persistence failure as a 500 error
func NewStorageError(err error) *AppError {
	return NewInternalServerError(CodeStorage, err.Error())
}

// NewGatewayError wraps an inference call failure as a 502 error
func NewGatewayError(err error) *AppError {
	return NewError(http.StatusBadGateway, CodeGateway, err.Error())
}

// FromError converts any error to an AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return &AppError{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeServer,
		Message:    err.Error(),
	}
}

// Is checks if the target error is of type AppError with the same code
func Is(err error, target *AppError) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}
	return appErr.Code == target.Code
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == CodeValidation
}
