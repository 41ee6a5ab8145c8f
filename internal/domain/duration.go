package domain

import (
	"time"

	"freelancer/internal/errors"
)

// BillableMinutes returns round((end - start) / 1 minute), half up.
// An end at or before start is a validation error; callers must reject it
// before committing a time entry.
func BillableMinutes(start, end time.Time) (int, error) {
	if !end.After(start) {
		return 0, errors.NewValidationError("end time must be after start time", nil).
			WithContext("start_time", start).
			WithContext("end_time", end)
	}
	elapsed := end.Sub(start)
	return int((elapsed + 30*time.Second) / time.Minute), nil
}

// ElapsedSeconds is the display counter of a ticking timer: time since start
// up to now (or the pause instant) minus everything spent paused, floored to
// whole seconds and never negative.
func ElapsedSeconds(start time.Time, pausedAt *time.Time, pausedSeconds int64, now time.Time) int64 {
	until := now
	if pausedAt != nil {
		until = *pausedAt
	}
	elapsed := int64(until.Sub(start)/time.Second) - pausedSeconds
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
