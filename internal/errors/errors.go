package errors

import (
	"errors"
	"fmt"
	"net/http"
)

func newAppError(errorType ErrorType, code, message string, context map[string]interface{}) *AppError {
	if context == nil {
		context = make(map[string]interface{})
	}
	return &AppError{Type: errorType, Message: message, Code: code, Context: context}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	err := newAppError(ErrorTypeValidation, "VALIDATION_FAILED", message, nil)
	err.Cause = cause
	return err
}

// NewNotFoundError reports a missing entity. Entities owned by another user
// are reported the same way.
func NewNotFoundError(resource string, identifier string) *AppError {
	return newAppError(ErrorTypeNotFound, "NOT_FOUND", fmt.Sprintf("%s not found: %s", resource, identifier),
		map[string]interface{}{"resource": resource, "identifier": identifier})
}

// NewConflictError creates an error for a write that would break an invariant
func NewConflictError(resource string, message string) *AppError {
	return newAppError(ErrorTypeConflict, "CONFLICT", message, map[string]interface{}{"resource": resource})
}

// NewDuplicateError creates a conflict error for a value that must be unique
func NewDuplicateError(resource string, field string, value interface{}) *AppError {
	return newAppError(ErrorTypeConflict, "DUPLICATE", fmt.Sprintf("%s with %s %v already exists", resource, field, value),
		map[string]interface{}{"resource": resource, "field": field, "value": value})
}

// NewInvalidStateError creates an error for an operation the entity's current state forbids
func NewInvalidStateError(resource string, state string, message string) *AppError {
	return newAppError(ErrorTypeInvalidState, "INVALID_STATE", message,
		map[string]interface{}{"resource": resource, "state": state})
}

// NewDatabaseError creates a new database error
func NewDatabaseError(operation string, cause error) *AppError {
	err := newAppError(ErrorTypeDatabase, "DATABASE_ERROR", "database operation failed: "+operation,
		map[string]interface{}{"operation": operation})
	err.Cause = cause
	return err
}

// NewInvalidInputError creates a new invalid input error
func NewInvalidInputError(field string, value interface{}, reason string) *AppError {
	return newAppError(ErrorTypeInvalidInput, "INVALID_INPUT", fmt.Sprintf("invalid input for %s: %s", field, reason),
		map[string]interface{}{"field": field, "value": value, "reason": reason})
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(operation string, timeout interface{}) *AppError {
	return newAppError(ErrorTypeTimeout, "TIMEOUT", "operation timed out: "+operation,
		map[string]interface{}{"operation": operation, "timeout": timeout})
}

// NewUnauthorizedError creates an error for a request without a usable caller identity
func NewUnauthorizedError(reason string) *AppError {
	return newAppError(ErrorTypeUnauthorized, "UNAUTHORIZED", reason, nil)
}

// WrapError classifies an existing error. The code is the type name.
func WrapError(err error, errorType ErrorType, message string) *AppError {
	wrapped := newAppError(errorType, errorType.String(), message, nil)
	wrapped.Cause = err
	return wrapped
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsErrorType checks if the error is of the specified type
func IsErrorType(err error, errorType ErrorType) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Type == errorType
}

// HTTPStatus returns the status code for an error, 500 for anything unclassified
func HTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Type.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// GetUserMessage returns the message safe to show a caller. Database and
// unclassified causes are replaced with a generic sentence.
func GetUserMessage(err error) string {
	appErr, ok := AsAppError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}
	switch appErr.Type {
	case ErrorTypeDatabase:
		return "A database error occurred. Please try again."
	case ErrorTypeTimeout:
		return "The operation timed out. Please try again."
	case ErrorTypeValidation, ErrorTypeNotFound, ErrorTypeConflict,
		ErrorTypeInvalidState, ErrorTypeInvalidInput, ErrorTypeUnauthorized:
		return appErr.Message
	default:
		return "An unexpected error occurred. Please try again."
	}
}

// GetErrorCode returns the error code for the error
func GetErrorCode(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return "UNKNOWN_ERROR"
}

// ShouldLogError reports whether err is a system fault rather than a caller mistake
func ShouldLogError(err error) bool {
	return HTTPStatus(err) >= http.StatusInternalServerError
}
