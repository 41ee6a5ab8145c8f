package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationErrorType classifies a field error
type ValidationErrorType string

const (
	ErrorTypeRequired         ValidationErrorType = "required"
	ErrorTypeInvalidFormat    ValidationErrorType = "invalid_format"
	ErrorTypeInvalidLength    ValidationErrorType = "invalid_length"
	ErrorTypeInvalidValue     ValidationErrorType = "invalid_value"
	ErrorTypeInvalidRange     ValidationErrorType = "invalid_range"
	ErrorTypeInvalidCharacter ValidationErrorType = "invalid_character"
)

// FieldError is one entry of the errors array in a 400 response. The
// offending value is kept for logs only.
type FieldError struct {
	Field   string              `json:"field"`
	Type    ValidationErrorType `json:"type"`
	Message string              `json:"message"`
	Value   interface{}         `json:"-"`
}

func (fe *FieldError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", fe.Field, fe.Message)
}

// ValidationError collects every field error found in one request, so a
// client can show them all at once.
type ValidationError struct {
	Errors []FieldError
}

// NewValidationError creates an empty collector
func NewValidationError() *ValidationError {
	return &ValidationError{Errors: make([]FieldError, 0)}
}

func (ve *ValidationError) Error() string {
	switch len(ve.Errors) {
	case 0:
		return "validation error"
	case 1:
		return ve.Errors[0].Error()
	}
	parts := make([]string, len(ve.Errors))
	for i := range ve.Errors {
		parts[i] = ve.Errors[i].Error()
	}
	return "multiple validation errors: " + strings.Join(parts, "; ")
}

// IsValidationError checks if an error is, or wraps, a ValidationError
func IsValidationError(err error) bool {
	_, ok := AsValidationError(err)
	return ok
}

// AsValidationError extracts a ValidationError from an error chain
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// HasErrors reports whether any field error was collected
func (ve *ValidationError) HasErrors() bool {
	return len(ve.Errors) > 0
}

// AsError returns the collector, or nil when nothing was collected
func (ve *ValidationError) AsError() error {
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// Merge appends the field errors of err when it is a ValidationError
func (ve *ValidationError) Merge(err error) {
	if other, ok := AsValidationError(err); ok {
		ve.Errors = append(ve.Errors, other.Errors...)
	}
}

// AddError appends a field error
func (ve *ValidationError) AddError(field string, errorType ValidationErrorType, message string, value interface{}) {
	ve.Errors = append(ve.Errors, FieldError{Field: field, Type: errorType, Message: message, Value: value})
}

func (ve *ValidationError) AddRequiredError(field string) {
	ve.AddError(field, ErrorTypeRequired, field+" is required", nil)
}

func (ve *ValidationError) AddInvalidFormatError(field string, value interface{}, expectedFormat string) {
	ve.AddError(field, ErrorTypeInvalidFormat,
		fmt.Sprintf("%s has invalid format, expected: %s", field, expectedFormat), value)
}

// AddInvalidLengthError describes the allowed length; a bound of 0 is open
func (ve *ValidationError) AddInvalidLengthError(field string, value interface{}, min, max int) {
	var message string
	switch {
	case min > 0 && max > 0:
		message = fmt.Sprintf("%s must be between %d and %d characters long", field, min, max)
	case min > 0:
		message = fmt.Sprintf("%s must be at least %d characters long", field, min)
	case max > 0:
		message = fmt.Sprintf("%s must be at most %d characters long", field, max)
	default:
		message = field + " has invalid length"
	}
	ve.AddError(field, ErrorTypeInvalidLength, message, value)
}

func (ve *ValidationError) AddInvalidValueError(field string, value interface{}, reason string) {
	ve.AddError(field, ErrorTypeInvalidValue, fmt.Sprintf("%s has invalid value: %s", field, reason), value)
}

func (ve *ValidationError) AddInvalidRangeError(field string, value interface{}, reason string) {
	ve.AddError(field, ErrorTypeInvalidRange, fmt.Sprintf("%s has invalid range: %s", field, reason), value)
}

func (ve *ValidationError) AddInvalidCharacterError(field string, value interface{}) {
	ve.AddError(field, ErrorTypeInvalidCharacter, field+" contains invalid characters", value)
}

// GetFieldErrors returns the errors recorded against one field
func (ve *ValidationError) GetFieldErrors(field string) []FieldError {
	var fieldErrors []FieldError
	for _, fe := range ve.Errors {
		if fe.Field == field {
			fieldErrors = append(fieldErrors, fe)
		}
	}
	return fieldErrors
}

// GetUserFriendlyMessage renders the errors for a terminal, one per line
func (ve *ValidationError) GetUserFriendlyMessage() string {
	switch len(ve.Errors) {
	case 0:
		return "Input validation failed"
	case 1:
		return ve.Errors[0].Message
	}
	var b strings.Builder
	b.WriteString("Multiple validation errors occurred:")
	for _, fe := range ve.Errors {
		b.WriteString("\n- ")
		b.WriteString(fe.Message)
	}
	return b.String()
}
