package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type for support flow operations.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates a local validation failure. No network call was made.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeInvalidState indicates the operation is not permitted in the current flow state.
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"
	// ErrCodeTimeout indicates the soft reply deadline elapsed.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeNetwork indicates a timeout or connectivity failure reaching the backend.
	ErrCodeNetwork ErrorCode = "NETWORK"
	// ErrCodeBackend indicates the backend answered with a failure.
	ErrCodeBackend ErrorCode = "BACKEND"
	// ErrCodeNotFound indicates the backend reported the referenced record missing.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// AppError represents a structured error for support flow operations.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *AppError) GetCode() ErrorCode {
	return e.Code
}

// UserMessage returns the text shown to the user.
func (e *AppError) UserMessage() string {
	return e.Message
}

// Convenience constructors for common error types.

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *AppError {
	return &AppError{Code: ErrCodeInvalidArgument, Message: msg}
}

// InvalidState creates an invalid state error.
func InvalidState(msg string) *AppError {
	return &AppError{Code: ErrCodeInvalidState, Message: msg}
}

// Timeout creates a timeout error.
func Timeout(msg string) *AppError {
	return &AppError{Code: ErrCodeTimeout, Message: msg}
}

// Network creates a network error.
func Network(msg string, cause error) *AppError {
	return &AppError{Code: ErrCodeNetwork, Message: msg, Cause: cause}
}

// Backend creates a backend error.
func Backend(msg string, cause error) *AppError {
	return &AppError{Code: ErrCodeBackend, Message: msg, Cause: cause}
}

// NotFound creates a not found error.
func NotFound(msg string, cause error) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
