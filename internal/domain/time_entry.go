package domain

import (
	"time"

	"freelancer/internal/errors"
)

// TimeEntry represents a time tracking entry in the domain model.
// An entry without EndTime is running; at most one may run per user.
type TimeEntry struct {
	ID              int64
	UserID          int64
	ProjectID       int64
	TaskID          *int64
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes *int
	Description     string
	IsBillable      bool
	IsBilled        bool
	InvoiceID       *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TimeEntryPatch lists the fields a manual edit may change. Nil fields are left alone.
type TimeEntryPatch struct {
	ProjectID   *int64
	TaskID      *int64
	StartTime   *time.Time
	EndTime     *time.Time
	Description *string
	IsBillable  *bool
}

// NewTimeEntry creates a new running TimeEntry for the given project.
func NewTimeEntry(userID, projectID int64, taskID *int64, description string, startTime time.Time) TimeEntry {
	return TimeEntry{
		UserID:      userID,
		ProjectID:   projectID,
		TaskID:      taskID,
		StartTime:   startTime,
		Description: description,
		IsBillable:  true,
	}
}

// IsRunning returns true if the time entry is currently running (no end time).
func (te TimeEntry) IsRunning() bool {
	return te.EndTime == nil
}

// IsLocked reports whether the entry has been attached to an invoice.
func (te TimeEntry) IsLocked() bool {
	return te.IsBilled || te.InvoiceID != nil
}

// Date is the calendar day the entry started on, in the entry's location.
func (te TimeEntry) Date() string {
	return te.StartTime.Format("2006-01-02")
}

// Stop returns a copy of the entry ended at endTime with its duration committed.
func (te TimeEntry) Stop(endTime time.Time) (TimeEntry, error) {
	if !te.IsRunning() {
		return te, errors.NewInvalidStateError("time entry", "stopped", "time entry already stopped")
	}
	minutes, err := BillableMinutes(te.StartTime, endTime)
	if err != nil {
		return te, err
	}
	te.EndTime = &endTime
	te.DurationMinutes = &minutes
	te.UpdatedAt = endTime
	return te, nil
}

// Apply returns a copy of the entry with the patch applied. Duration is
// recomputed whenever both timestamps are present after the patch.
func (te TimeEntry) Apply(p TimeEntryPatch, now time.Time) (TimeEntry, error) {
	if te.IsLocked() {
		return te, errors.NewInvalidStateError("time entry", "billed", "billed time entries cannot be modified")
	}
	if p.ProjectID != nil {
		te.ProjectID = *p.ProjectID
	}
	if p.TaskID != nil {
		taskID := *p.TaskID
		te.TaskID = &taskID
	}
	if p.StartTime != nil {
		te.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		end := *p.EndTime
		te.EndTime = &end
	}
	if p.Description != nil {
		te.Description = *p.Description
	}
	if p.IsBillable != nil {
		te.IsBillable = *p.IsBillable
	}
	te.DurationMinutes = nil
	if te.EndTime != nil {
		minutes, err := BillableMinutes(te.StartTime, *te.EndTime)
		if err != nil {
			return te, err
		}
		te.DurationMinutes = &minutes
	}
	te.UpdatedAt = now
	return te, nil
}

// Duration returns the duration of the time entry.
// If the entry is still running, it returns the duration up to now.
func (te TimeEntry) Duration(now time.Time) time.Duration {
	if te.EndTime == nil {
		return now.Sub(te.StartTime)
	}
	return te.EndTime.Sub(te.StartTime)
}

// IsValid checks if the time entry has valid data.
func (te TimeEntry) IsValid() bool {
	if te.UserID <= 0 || te.ProjectID <= 0 {
		return false
	}
	if te.StartTime.IsZero() {
		return false
	}
	if te.EndTime != nil && !te.EndTime.After(te.StartTime) {
		return false
	}
	return true
}
