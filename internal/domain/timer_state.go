package domain

import (
	"time"

	"freelancer/internal/errors"
)

// TimerStatus is a position in the timer state machine.
type TimerStatus string

const (
	TimerIdle    TimerStatus = "idle"
	TimerRunning TimerStatus = "running"
	TimerPaused  TimerStatus = "paused"
	TimerStopped TimerStatus = "stopped"
)

// TimerState is the client-held mirror of a running time entry. Pausing only
// freezes this display counter; the server entry keeps accruing until stop.
type TimerState struct {
	TimeEntryID   int64      `json:"timeEntryId"`
	ProjectID     int64      `json:"projectId"`
	Description   string     `json:"description"`
	StartedAt     time.Time  `json:"startTime"`
	PausedAt      *time.Time `json:"pausedAt,omitempty"`
	PausedSeconds int64      `json:"pausedSeconds"`
}

// NewTimerState mirrors a freshly started entry.
func NewTimerState(entry TimeEntry) TimerState {
	return TimerState{
		TimeEntryID: entry.ID,
		ProjectID:   entry.ProjectID,
		Description: entry.Description,
		StartedAt:   entry.StartTime,
	}
}

// Status reports running or paused.
func (s TimerState) Status() TimerStatus {
	if s.PausedAt != nil {
		return TimerPaused
	}
	return TimerRunning
}

// Pause freezes the display counter at now.
func (s TimerState) Pause(now time.Time) (TimerState, error) {
	if s.PausedAt != nil {
		return s, errors.NewInvalidStateError("timer", string(TimerPaused), "timer already paused")
	}
	s.PausedAt = &now
	return s, nil
}

// Resume folds the pause interval into PausedSeconds.
func (s TimerState) Resume(now time.Time) (TimerState, error) {
	if s.PausedAt == nil {
		return s, errors.NewInvalidStateError("timer", string(TimerRunning), "timer is not paused")
	}
	paused := int64(now.Sub(*s.PausedAt) / time.Second)
	if paused > 0 {
		s.PausedSeconds += paused
	}
	s.PausedAt = nil
	return s, nil
}

// Elapsed is the display value only; it is never persisted as billed time.
func (s TimerState) Elapsed(now time.Time) time.Duration {
	return time.Duration(ElapsedSeconds(s.StartedAt, s.PausedAt, s.PausedSeconds, now)) * time.Second
}

// IsStale reports whether the timer is old enough to be treated as abandoned.
func (s TimerState) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.StartedAt) > maxAge
}
