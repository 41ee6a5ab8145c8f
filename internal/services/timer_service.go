package services

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"freelancer/internal/domain"
	"freelancer/internal/errors"
	"freelancer/internal/repository/sqlite"
	"freelancer/internal/validation"
)

// timerServiceImpl implements the TimerService interface
type timerServiceImpl struct {
	repo               sqlite.Repository
	mapper             *domain.Mapper
	timeEntryValidator *validation.TimeEntryValidator
	clock              Clock
	logger             *slog.Logger
}

// NewTimerService creates a new TimerService instance
func NewTimerService(repo sqlite.Repository, validator *validation.TimeEntryValidator, clock Clock, logger *slog.Logger) TimerService {
	return &timerServiceImpl{
		repo:               repo,
		mapper:             domain.NewMapper(),
		timeEntryValidator: validator,
		clock:              clock,
		logger:             logger,
	}
}

// Start opens a running entry for the user. The lookup for an existing
// running entry and the insert share a transaction; the partial unique
// index on running entries rejects any concurrent start that slips past.
func (s *timerServiceImpl) Start(ctx context.Context, userID, projectID int64, taskID *int64, description string) (*domain.TimeEntry, error) {
	if err := s.timeEntryValidator.ValidateTimerStart(projectID, taskID, description); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var started domain.TimeEntry

	err := s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		if err := checkProjectAndTask(ctx, tx, userID, projectID, taskID); err != nil {
			return err
		}

		running, err := tx.GetRunningTimeEntry(ctx, userID)
		if err != nil && !errors.IsErrorType(err, errors.ErrorTypeNotFound) {
			return err
		}
		if running != nil {
			return errors.NewConflictError("time entry", "a timer is already running").
				WithContext("running_entry_id", running.ID)
		}

		entry := domain.NewTimeEntry(userID, projectID, taskID, strings.TrimSpace(description), now)
		entry.CreatedAt, entry.UpdatedAt = now, now
		dbEntry := s.mapper.TimeEntry.ToDatabase(entry)
		if err := tx.CreateTimeEntry(ctx, &dbEntry); err != nil {
			return err
		}
		started = s.mapper.TimeEntry.FromDatabase(dbEntry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("timer started", "user_id", userID, "entry_id", started.ID, "project_id", projectID)
	return &started, nil
}

// Stop ends a running entry at the current instant and commits its duration
func (s *timerServiceImpl) Stop(ctx context.Context, userID, entryID int64) (*domain.TimeEntry, error) {
	if err := s.timeEntryValidator.ValidateTimeEntryID(entryID); err != nil {
		return nil, err
	}

	var stopped domain.TimeEntry
	err := s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		dbEntry, err := tx.GetTimeEntry(ctx, userID, entryID)
		if err != nil {
			return err
		}

		entry, err := s.mapper.TimeEntry.FromDatabase(*dbEntry).Stop(s.clock.Now())
		if err != nil {
			return err
		}

		updated := s.mapper.TimeEntry.ToDatabase(entry)
		if err := tx.UpdateTimeEntry(ctx, &updated); err != nil {
			return err
		}
		stopped = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("timer stopped", "user_id", userID, "entry_id", entryID, "duration_minutes", *stopped.DurationMinutes)
	return &stopped, nil
}

// Current returns the user's running entry or a not found error
func (s *timerServiceImpl) Current(ctx context.Context, userID int64) (*domain.TimeEntry, error) {
	dbEntry, err := s.repo.GetRunningTimeEntry(ctx, userID)
	if err != nil {
		return nil, err
	}
	entry := s.mapper.TimeEntry.FromDatabase(*dbEntry)
	return &entry, nil
}

// SweepAbandoned closes entries left running longer than maxAge. Each is
// ended at start + maxAge rather than now, so abandoned hours are not billed.
func (s *timerServiceImpl) SweepAbandoned(ctx context.Context, maxAge time.Duration) ([]*domain.TimeEntry, error) {
	if maxAge <= 0 {
		return nil, errors.NewInvalidInputError("maxAge", maxAge.String(), "must be positive")
	}

	cutoff := s.clock.Now().Add(-maxAge)
	var closed []*domain.TimeEntry

	err := s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		abandoned, err := tx.ListRunningTimeEntries(ctx, cutoff)
		if err != nil {
			return err
		}

		for _, dbEntry := range abandoned {
			entry := s.mapper.TimeEntry.FromDatabase(*dbEntry)
			entry, err = entry.Stop(entry.StartTime.Add(maxAge))
			if err != nil {
				return err
			}

			updated := s.mapper.TimeEntry.ToDatabase(entry)
			if err := tx.UpdateTimeEntry(ctx, &updated); err != nil {
				return err
			}
			closed = append(closed, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(closed) > 0 {
		s.logger.Info("closed abandoned timers", "count", len(closed), "max_age", maxAge.String())
	}
	return closed, nil
}

// checkProjectAndTask verifies that the project, and the task when given,
// belong to the user and to each other.
func checkProjectAndTask(ctx context.Context, repo sqlite.Repository, userID, projectID int64, taskID *int64) error {
	if _, err := repo.GetProject(ctx, userID, projectID); err != nil {
		return err
	}
	if taskID == nil {
		return nil
	}
	task, err := repo.GetTask(ctx, userID, *taskID)
	if err != nil {
		return err
	}
	if task.ProjectID != projectID {
		return errors.NewNotFoundError("task", idString(*taskID))
	}
	return nil
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
