package validation

import (
	"fmt"
	"time"

	"freelancer/internal/config"
	"freelancer/internal/domain"
)

// TimeEntryInput is the caller-supplied data for a manual time entry
type TimeEntryInput struct {
	ProjectID   int64
	TaskID      *int64
	StartTime   *time.Time
	EndTime     *time.Time
	Description string
	IsBillable  *bool
}

// TimeEntryValidator provides validation for TimeEntry-related operations
type TimeEntryValidator struct {
	validator *Validator
}

// NewTimeEntryValidator creates a new time entry validator
func NewTimeEntryValidator(cfg *config.Config) *TimeEntryValidator {
	return &TimeEntryValidator{
		validator: NewValidatorWithConfig(cfg),
	}
}

// ValidateTimerStart validates the arguments of a timer start
func (tev *TimeEntryValidator) ValidateTimerStart(projectID int64, taskID *int64, description string) error {
	validationError := NewValidationError()

	if !tev.validator.IsValidID(projectID) {
		validationError.AddInvalidValueError("projectId", projectID, "must be a positive integer")
	}
	if taskID != nil && !tev.validator.IsValidID(*taskID) {
		validationError.AddInvalidValueError("taskId", *taskID, "must be a positive integer")
	}
	if !tev.validator.IsValidDescriptionLength(description) {
		validationError.AddInvalidLengthError("description", description, 0, tev.validator.DescriptionMaxLength())
	}

	return validationError.AsError()
}

// ValidateTimeEntryForCreation validates a manual entry. Both timestamps are required.
func (tev *TimeEntryValidator) ValidateTimeEntryForCreation(in TimeEntryInput) error {
	validationError := NewValidationError()

	validationError.Merge(tev.ValidateTimerStart(in.ProjectID, in.TaskID, in.Description))

	if in.StartTime == nil || in.StartTime.IsZero() {
		validationError.AddRequiredError("startTime")
	}
	if in.EndTime == nil || in.EndTime.IsZero() {
		validationError.AddRequiredError("endTime")
	}
	if validationError.HasErrors() {
		return validationError
	}

	tev.validateRange(validationError, *in.StartTime, *in.EndTime)

	return validationError.AsError()
}

// ValidateTimeEntryPatch validates the fields present in an update. endCleared
// reports an explicit null end time, which would reopen the entry.
func (tev *TimeEntryValidator) ValidateTimeEntryPatch(id int64, patch domain.TimeEntryPatch, endCleared bool) error {
	validationError := NewValidationError()

	if !tev.validator.IsValidID(id) {
		validationError.AddInvalidValueError("id", id, "must be a positive integer")
	}
	if patch.ProjectID != nil && !tev.validator.IsValidID(*patch.ProjectID) {
		validationError.AddInvalidValueError("projectId", *patch.ProjectID, "must be a positive integer")
	}
	if patch.TaskID != nil && !tev.validator.IsValidID(*patch.TaskID) {
		validationError.AddInvalidValueError("taskId", *patch.TaskID, "must be a positive integer")
	}
	if patch.StartTime != nil && patch.StartTime.IsZero() {
		validationError.AddRequiredError("startTime")
	}
	if endCleared {
		validationError.AddInvalidValueError("endTime", nil, "cannot be cleared on an existing entry")
	}
	if patch.Description != nil && !tev.validator.IsValidDescriptionLength(*patch.Description) {
		validationError.AddInvalidLengthError("description", *patch.Description, 0, tev.validator.DescriptionMaxLength())
	}

	return validationError.AsError()
}

// ValidateTimeEntry validates a fully assembled entry, as produced by applying a patch
func (tev *TimeEntryValidator) ValidateTimeEntry(entry domain.TimeEntry, now time.Time) error {
	validationError := NewValidationError()

	if entry.EndTime != nil {
		tev.validateRange(validationError, entry.StartTime, *entry.EndTime)
	} else if entry.StartTime.After(now) {
		validationError.AddInvalidRangeError("startTime", entry.StartTime, "running entry cannot start in the future")
	}
	if !validationError.HasErrors() && !entry.IsValid() {
		validationError.AddInvalidValueError("timeEntry", entry.ID, "fails basic validation")
	}

	return validationError.AsError()
}

func (tev *TimeEntryValidator) validateRange(validationError *ValidationError, start, end time.Time) {
	if !tev.validator.IsValidTimeRange(start, &end) {
		validationError.AddInvalidRangeError("endTime", end, "end time must be after start time")
		return
	}
	if !tev.validator.IsValidDuration(end.Sub(start)) {
		validationError.AddInvalidRangeError("endTime", end,
			fmt.Sprintf("entry cannot be longer than %s", tev.validator.MaxEntryDuration()))
	}
}

// ValidateSearchOptions validates search options for time entries
func (tev *TimeEntryValidator) ValidateSearchOptions(opts domain.SearchOptions) error {
	validationError := NewValidationError()

	if !tev.validator.IsValidDateRange(opts.From, opts.To) {
		validationError.AddInvalidRangeError("to", opts.To, "must not be before from")
	}
	if opts.ProjectID != nil && !tev.validator.IsValidID(*opts.ProjectID) {
		validationError.AddInvalidValueError("projectId", *opts.ProjectID, "must be a positive integer")
	}
	if opts.InvoiceID != nil && !tev.validator.IsValidID(*opts.InvoiceID) {
		validationError.AddInvalidValueError("invoiceId", *opts.InvoiceID, "must be a positive integer")
	}

	return validationError.AsError()
}

// ValidateTimeShorthand validates time shorthand format (e.g., "30m", "2h", "1d")
func (tev *TimeEntryValidator) ValidateTimeShorthand(shorthand string) error {
	if !tev.validator.IsValidTimeShorthand(shorthand) {
		validationError := NewValidationError()
		validationError.AddInvalidFormatError("since", shorthand, "30m, 2h, 1d, 2w, 3mo, 1y")
		return validationError
	}
	return nil
}

// ParseSince validates a shorthand and returns the instant it reaches back to from now
func (tev *TimeEntryValidator) ParseSince(shorthand string, now time.Time) (time.Time, error) {
	if err := tev.ValidateTimeShorthand(shorthand); err != nil {
		return time.Time{}, err
	}
	return tev.validator.ParseTimeShorthand(shorthand, now)
}

// ValidateTimeEntryID validates a time entry ID
func (tev *TimeEntryValidator) ValidateTimeEntryID(id int64) error {
	if !tev.validator.IsValidID(id) {
		validationError := NewValidationError()
		validationError.AddInvalidValueError("id", id, "must be a positive integer")
		return validationError
	}
	return nil
}
