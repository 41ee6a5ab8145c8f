package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freelancer/internal/config"
	"freelancer/internal/domain"
)

func TestTimeEntryValidator_ValidateTimerStart(t *testing.T) {
	validator := NewTimeEntryValidator(nil)
	taskID := int64(3)
	badTask := int64(0)

	tests := []struct {
		name        string
		projectID   int64
		taskID      *int64
		description string
		expectError bool
	}{
		{"Valid start", 1, nil, "", false},
		{"Valid start with task", 1, &taskID, "Design review", false},
		{"Missing project", 0, nil, "", true},
		{"Invalid task", 1, &badTask, "", true},
		{"Description too long", 1, nil, strings.Repeat("x", 2001), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateTimerStart(tt.projectID, tt.taskID, tt.description)
			if tt.expectError && err == nil {
				t.Errorf("ValidateTimerStart(%d) expected error but got nil", tt.projectID)
			} else if !tt.expectError && err != nil {
				t.Errorf("ValidateTimerStart(%d) expected no error but got %v", tt.projectID, err)
			}
		})
	}
}

func TestTimeEntryValidator_ValidateTimeEntryForCreation(t *testing.T) {
	validator := NewTimeEntryValidator(nil)

	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)
	before := start.Add(-time.Minute)
	tooLong := start.Add(25 * time.Hour)

	tests := []struct {
		name        string
		input       TimeEntryInput
		expectField string
	}{
		{"Valid completed entry", TimeEntryInput{ProjectID: 1, StartTime: &start, EndTime: &end}, ""},
		{"Missing end", TimeEntryInput{ProjectID: 1, StartTime: &start}, "endTime"},
		{"Missing start", TimeEntryInput{ProjectID: 1, EndTime: &end}, "startTime"},
		{"Invalid project", TimeEntryInput{StartTime: &start, EndTime: &end}, "projectId"},
		{"End before start", TimeEntryInput{ProjectID: 1, StartTime: &start, EndTime: &before}, "endTime"},
		{"Same start and end", TimeEntryInput{ProjectID: 1, StartTime: &start, EndTime: &start}, "endTime"},
		{"Too long duration", TimeEntryInput{ProjectID: 1, StartTime: &start, EndTime: &tooLong}, "endTime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateTimeEntryForCreation(tt.input)
			if tt.expectField == "" {
				assert.NoError(t, err)
				return
			}
			ve, ok := AsValidationError(err)
			require.True(t, ok, "expected ValidationError, got %v", err)
			assert.NotEmpty(t, ve.GetFieldErrors(tt.expectField))
		})
	}
}

func TestTimeEntryValidator_ConfiguredMaxDuration(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Validation.MaxEntryDuration = 2 * time.Hour
	validator := NewTimeEntryValidator(cfg)

	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)

	err := validator.ValidateTimeEntryForCreation(TimeEntryInput{ProjectID: 1, StartTime: &start, EndTime: &end})
	assert.True(t, IsValidationError(err))
}

func TestTimeEntryValidator_ValidateTimeEntryPatch(t *testing.T) {
	validator := NewTimeEntryValidator(nil)
	zero := int64(0)
	desc := "Updated"

	assert.NoError(t, validator.ValidateTimeEntryPatch(1, domain.TimeEntryPatch{Description: &desc}, false))

	err := validator.ValidateTimeEntryPatch(1, domain.TimeEntryPatch{}, true)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "endTime", ve.Errors[0].Field)

	err = validator.ValidateTimeEntryPatch(0, domain.TimeEntryPatch{ProjectID: &zero}, false)
	ve, ok = AsValidationError(err)
	require.True(t, ok)
	assert.Len(t, ve.Errors, 2)
}

func TestTimeEntryValidator_ValidateTimeEntry(t *testing.T) {
	validator := NewTimeEntryValidator(nil)
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	before := start.Add(-time.Hour)

	now := start.Add(2 * time.Hour)

	entry := domain.NewTimeEntry(1, 1, nil, "", start)
	assert.NoError(t, validator.ValidateTimeEntry(entry, now))

	entry.EndTime = &end
	assert.NoError(t, validator.ValidateTimeEntry(entry, now))

	entry.EndTime = &before
	assert.Error(t, validator.ValidateTimeEntry(entry, now))

	orphan := domain.NewTimeEntry(1, 0, nil, "", start)
	assert.Error(t, validator.ValidateTimeEntry(orphan, now))
}

func TestTimeEntryValidator_RunningEntryCannotStartInFuture(t *testing.T) {
	validator := NewTimeEntryValidator(nil)
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	running := domain.NewTimeEntry(1, 1, nil, "", now.Add(time.Minute))
	err := validator.ValidateTimeEntry(running, now)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "startTime", ve.Errors[0].Field)

	running.StartTime = now
	assert.NoError(t, validator.ValidateTimeEntry(running, now))

	end := now.Add(2 * time.Hour)
	planned := domain.NewTimeEntry(1, 1, nil, "", now.Add(time.Hour))
	planned.EndTime = &end
	assert.NoError(t, validator.ValidateTimeEntry(planned, now))
}

func TestTimeEntryValidator_ValidateSearchOptions(t *testing.T) {
	validator := NewTimeEntryValidator(nil)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	badProject := int64(-1)

	assert.NoError(t, validator.ValidateSearchOptions(domain.SearchOptions{}))
	assert.NoError(t, validator.ValidateSearchOptions(domain.SearchOptions{From: &from, To: &to}))
	assert.Error(t, validator.ValidateSearchOptions(domain.SearchOptions{From: &to, To: &from}))
	assert.Error(t, validator.ValidateSearchOptions(domain.SearchOptions{ProjectID: &badProject}))
}

func TestTimeEntryValidator_ValidateTimeShorthand(t *testing.T) {
	validator := NewTimeEntryValidator(nil)

	assert.NoError(t, validator.ValidateTimeShorthand("2w"))
	err := validator.ValidateTimeShorthand("fortnight")
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeInvalidFormat, ve.Errors[0].Type)
}

func TestTimeEntryValidator_ParseSince(t *testing.T) {
	validator := NewTimeEntryValidator(nil)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	from, err := validator.ParseSince("2d", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-48*time.Hour), from)

	_, err = validator.ParseSince("soon", now)
	assert.True(t, IsValidationError(err))
}

func TestTimeEntryValidator_ValidateTimeEntryID(t *testing.T) {
	validator := NewTimeEntryValidator(nil)

	assert.NoError(t, validator.ValidateTimeEntryID(1))
	assert.Error(t, validator.ValidateTimeEntryID(0))
}
