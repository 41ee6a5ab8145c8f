package services

import (
	"context"
	"log/slog"
	"strings"

	"freelancer/internal/domain"
	"freelancer/internal/errors"
	"freelancer/internal/repository/sqlite"
	"freelancer/internal/validation"
)

// timeEntryServiceImpl implements the TimeEntryService interface
type timeEntryServiceImpl struct {
	repo               sqlite.Repository
	mapper             *domain.Mapper
	timeEntryValidator *validation.TimeEntryValidator
	clock              Clock
	logger             *slog.Logger
}

// NewTimeEntryService creates a new TimeEntryService instance
func NewTimeEntryService(repo sqlite.Repository, validator *validation.TimeEntryValidator, clock Clock, logger *slog.Logger) TimeEntryService {
	return &timeEntryServiceImpl{
		repo:               repo,
		mapper:             domain.NewMapper(),
		timeEntryValidator: validator,
		clock:              clock,
		logger:             logger,
	}
}

// Create records a completed manual entry
func (s *timeEntryServiceImpl) Create(ctx context.Context, userID int64, in validation.TimeEntryInput) (*domain.TimeEntry, error) {
	if err := s.timeEntryValidator.ValidateTimeEntryForCreation(in); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	entry := domain.NewTimeEntry(userID, in.ProjectID, in.TaskID, strings.TrimSpace(in.Description), *in.StartTime)
	if in.IsBillable != nil {
		entry.IsBillable = *in.IsBillable
	}
	entry, err := entry.Stop(*in.EndTime)
	if err != nil {
		return nil, err
	}
	entry.CreatedAt, entry.UpdatedAt = now, now

	err = s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		if err := checkProjectAndTask(ctx, tx, userID, in.ProjectID, in.TaskID); err != nil {
			return err
		}
		dbEntry := s.mapper.TimeEntry.ToDatabase(entry)
		if err := tx.CreateTimeEntry(ctx, &dbEntry); err != nil {
			return err
		}
		entry = s.mapper.TimeEntry.FromDatabase(dbEntry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("time entry created", "user_id", userID, "entry_id", entry.ID, "duration_minutes", *entry.DurationMinutes)
	return &entry, nil
}

// Get returns one of the user's entries
func (s *timeEntryServiceImpl) Get(ctx context.Context, userID, id int64) (*domain.TimeEntry, error) {
	if err := s.timeEntryValidator.ValidateTimeEntryID(id); err != nil {
		return nil, err
	}
	dbEntry, err := s.repo.GetTimeEntry(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	entry := s.mapper.TimeEntry.FromDatabase(*dbEntry)
	return &entry, nil
}

// List returns the user's entries matching opts, oldest first
func (s *timeEntryServiceImpl) List(ctx context.Context, userID int64, opts domain.SearchOptions) ([]*domain.TimeEntry, error) {
	if err := s.timeEntryValidator.ValidateSearchOptions(opts); err != nil {
		return nil, err
	}
	dbEntries, err := s.repo.SearchTimeEntries(ctx, s.mapper.SearchOptions.ToDatabase(userID, opts))
	if err != nil {
		return nil, err
	}

	entries := s.mapper.TimeEntry.FromDatabaseSlice(dbEntries)
	result := make([]*domain.TimeEntry, len(entries))
	for i := range entries {
		result[i] = &entries[i]
	}
	return result, nil
}

// Update applies only the supplied fields. Billed entries are immutable.
func (s *timeEntryServiceImpl) Update(ctx context.Context, userID, id int64, update TimeEntryUpdate) (*domain.TimeEntry, error) {
	if err := s.timeEntryValidator.ValidateTimeEntryPatch(id, update.Patch, update.ClearEndTime); err != nil {
		return nil, err
	}

	var updated domain.TimeEntry
	err := s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		dbEntry, err := tx.GetTimeEntry(ctx, userID, id)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		entry, err := s.mapper.TimeEntry.FromDatabase(*dbEntry).Apply(update.Patch, now)
		if err != nil {
			return err
		}
		if err := s.timeEntryValidator.ValidateTimeEntry(entry, now); err != nil {
			return err
		}
		if update.Patch.ProjectID != nil || update.Patch.TaskID != nil {
			if err := checkProjectAndTask(ctx, tx, userID, entry.ProjectID, entry.TaskID); err != nil {
				return err
			}
		}

		dbUpdated := s.mapper.TimeEntry.ToDatabase(entry)
		if err := tx.UpdateTimeEntry(ctx, &dbUpdated); err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("time entry updated", "user_id", userID, "entry_id", id)
	return &updated, nil
}

// Delete removes an entry that is not attached to an invoice
func (s *timeEntryServiceImpl) Delete(ctx context.Context, userID, id int64) error {
	if err := s.timeEntryValidator.ValidateTimeEntryID(id); err != nil {
		return err
	}

	err := s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		dbEntry, err := tx.GetTimeEntry(ctx, userID, id)
		if err != nil {
			return err
		}
		if s.mapper.TimeEntry.FromDatabase(*dbEntry).IsLocked() {
			return errors.NewInvalidStateError("time entry", "billed", "billed time entries cannot be deleted")
		}
		return tx.DeleteTimeEntry(ctx, userID, id)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("time entry deleted", "user_id", userID, "entry_id", id)
	return nil
}
