package validation

import (
	"github.com/cockroachdb/apd/v3"

	"freelancer/internal/config"
	"freelancer/internal/domain"
)

// ClientInput is the caller-supplied data for a client
type ClientInput struct {
	Name  string
	Email string
}

// ProjectInput is the caller-supplied data for a project. HourlyRate is a decimal string.
type ProjectInput struct {
	ClientID   int64
	Name       string
	HourlyRate *string
}

// EntityValidator validates clients, projects and tasks
type EntityValidator struct {
	validator *Validator
}

// NewEntityValidator creates a new entity validator
func NewEntityValidator(cfg *config.Config) *EntityValidator {
	return &EntityValidator{validator: NewValidatorWithConfig(cfg)}
}

// ValidateName validates a display name for creation or update
func (ev *EntityValidator) ValidateName(field, name string) error {
	validationError := NewValidationError()
	ev.validateName(validationError, field, name)
	return validationError.AsError()
}

func (ev *EntityValidator) validateName(validationError *ValidationError, field, name string) {
	trimmedName := ev.validator.TrimAndValidateString(name)

	if !ev.validator.IsNonEmptyString(trimmedName) {
		validationError.AddRequiredError(field)
		return
	}
	if !ev.validator.IsValidNameLength(trimmedName) {
		validationError.AddInvalidLengthError(field, trimmedName, 1, ev.validator.NameMaxLength())
	}
	if !ev.validator.IsValidName(trimmedName) {
		validationError.AddInvalidCharacterError(field, trimmedName)
	}
}

// ValidateClient validates a client; the email is optional
func (ev *EntityValidator) ValidateClient(in ClientInput) error {
	validationError := NewValidationError()

	ev.validateName(validationError, "name", in.Name)

	email := ev.validator.TrimAndValidateString(in.Email)
	if email != "" && !ev.validator.IsValidEmail(email) {
		validationError.AddInvalidFormatError("email", in.Email, "name@example.com")
	}

	return validationError.AsError()
}

// ValidateProject validates a project and returns its parsed hourly rate, if any
func (ev *EntityValidator) ValidateProject(in ProjectInput) (*apd.Decimal, error) {
	validationError := NewValidationError()

	if !ev.validator.IsValidID(in.ClientID) {
		validationError.AddInvalidValueError("clientId", in.ClientID, "must be a positive integer")
	}
	ev.validateName(validationError, "name", in.Name)

	var rate *apd.Decimal
	if in.HourlyRate != nil {
		parsed, err := domain.ParseDecimal(*in.HourlyRate)
		switch {
		case err != nil:
			validationError.AddInvalidFormatError("hourlyRate", *in.HourlyRate, "decimal number")
		case parsed.Sign() < 0:
			validationError.AddInvalidRangeError("hourlyRate", *in.HourlyRate, "must not be negative")
		default:
			rate = &parsed
		}
	}

	if validationError.HasErrors() {
		return nil, validationError
	}
	return rate, nil
}

// ValidateTaskName validates a task name
func (ev *EntityValidator) ValidateTaskName(name string) error {
	return ev.ValidateName("name", name)
}

// ValidateUser validates a new user account
func (ev *EntityValidator) ValidateUser(email, name string) error {
	validationError := NewValidationError()

	ev.validateName(validationError, "name", name)
	if !ev.validator.IsValidEmail(ev.validator.TrimAndValidateString(email)) {
		validationError.AddInvalidFormatError("email", email, "name@example.com")
	}

	return validationError.AsError()
}

// ValidateID validates an entity ID
func (ev *EntityValidator) ValidateID(field string, id int64) error {
	if !ev.validator.IsValidID(id) {
		validationError := NewValidationError()
		validationError.AddInvalidValueError(field, id, "must be a positive integer")
		return validationError
	}
	return nil
}
