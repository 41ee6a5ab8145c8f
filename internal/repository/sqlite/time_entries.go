package sqlite

import (
	"context"
	"strings"
	"time"

	"freelancer/internal/errors"
)

const timeEntryColumns = `
	id, user_id, project_id, task_id, start_time, end_time, duration_minutes,
	description, is_billable, is_billed, invoice_id, created_at, updated_at`

// CreateTimeEntry creates a new time entry. Inserting a second running
// entry for the same user fails with a conflict error.
func (r *SQLiteRepository) CreateTimeEntry(ctx context.Context, entry *TimeEntry) error {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	stampCreated(&entry.CreatedAt, &entry.UpdatedAt)
	query := `
	INSERT INTO time_entries (
		user_id, project_id, task_id, start_time, end_time, duration_minutes,
		description, is_billable, is_billed, invoice_id, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := ExecuteWithLastInsertID(ctx, r.ext, query,
		entry.UserID, entry.ProjectID, nullInt64(entry.TaskID),
		FormatTimeForDB(entry.StartTime), FormatTimePtrForDB(entry.EndTime), nullInt(entry.DurationMinutes),
		entry.Description, entry.IsBillable, entry.IsBilled, nullInt64(entry.InvoiceID),
		FormatTimeForDB(entry.CreatedAt), FormatTimeForDB(entry.UpdatedAt))
	if err != nil {
		if IsUniqueViolation(err) {
			return errors.NewConflictError("time entry", "a timer is already running")
		}
		if IsForeignKeyViolation(err) {
			return errors.NewNotFoundError("project", idString(entry.ProjectID))
		}
		return HandleDatabaseError("create time entry", err)
	}

	entry.ID = id
	return nil
}

// GetTimeEntry retrieves a time entry owned by userID
func (r *SQLiteRepository) GetTimeEntry(ctx context.Context, userID, id int64) (*TimeEntry, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `SELECT` + timeEntryColumns + `
	FROM time_entries
	WHERE id = ? AND user_id = ?`
	return QuerySingle[TimeEntry, timeEntryRow](ctx, r.ext, query, "time entry", idString(id), id, userID)
}

// GetRunningTimeEntry retrieves the user's running entry, if any
func (r *SQLiteRepository) GetRunningTimeEntry(ctx context.Context, userID int64) (*TimeEntry, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `SELECT` + timeEntryColumns + `
	FROM time_entries
	WHERE user_id = ? AND end_time IS NULL`
	return QuerySingle[TimeEntry, timeEntryRow](ctx, r.ext, query, "running time entry", idString(userID), userID)
}

// ListRunningTimeEntries lists running entries of all users started before the cutoff
func (r *SQLiteRepository) ListRunningTimeEntries(ctx context.Context, startedBefore time.Time) ([]*TimeEntry, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `SELECT` + timeEntryColumns + `
	FROM time_entries
	WHERE end_time IS NULL AND start_time < ?
	ORDER BY start_time ASC`
	return QueryMultiple[TimeEntry, timeEntryRow](ctx, r.ext, query, "time entries", FormatTimeForDB(startedBefore))
}

// SearchTimeEntries searches for time entries based on the provided options
func (r *SQLiteRepository) SearchTimeEntries(ctx context.Context, opts SearchOptions) ([]*TimeEntry, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	conditions := []string{"user_id = ?"}
	args := []interface{}{opts.UserID}

	if opts.ProjectID != nil {
		conditions = append(conditions, "project_id = ?")
		args = append(args, *opts.ProjectID)
	}
	if opts.From != nil {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, FormatTimeForDB(*opts.From))
	}
	if opts.To != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, FormatTimeForDB(*opts.To))
	}
	if opts.Billable != nil {
		conditions = append(conditions, "is_billable = ?")
		args = append(args, *opts.Billable)
	}
	if opts.Billed != nil {
		conditions = append(conditions, "is_billed = ?")
		args = append(args, *opts.Billed)
	}
	if opts.InvoiceID != nil {
		conditions = append(conditions, "invoice_id = ?")
		args = append(args, *opts.InvoiceID)
	}
	if opts.Running != nil {
		if *opts.Running {
			conditions = append(conditions, "end_time IS NULL")
		} else {
			conditions = append(conditions, "end_time IS NOT NULL")
		}
	}

	query := `SELECT` + timeEntryColumns + `
	FROM time_entries
	WHERE ` + strings.Join(conditions, " AND ") + `
	ORDER BY start_time ASC, id ASC`

	return QueryMultiple[TimeEntry, timeEntryRow](ctx, r.ext, query, "time entries", args...)
}

// UpdateTimeEntry updates an existing time entry
func (r *SQLiteRepository) UpdateTimeEntry(ctx context.Context, entry *TimeEntry) error {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now()
	}
	query := `
	UPDATE time_entries
	SET project_id = ?, task_id = ?, start_time = ?, end_time = ?, duration_minutes = ?,
		description = ?, is_billable = ?, is_billed = ?, invoice_id = ?, updated_at = ?
	WHERE id = ? AND user_id = ?`

	result, err := r.ext.ExecContext(ctx, query,
		entry.ProjectID, nullInt64(entry.TaskID),
		FormatTimeForDB(entry.StartTime), FormatTimePtrForDB(entry.EndTime), nullInt(entry.DurationMinutes),
		entry.Description, entry.IsBillable, entry.IsBilled, nullInt64(entry.InvoiceID),
		FormatTimeForDB(entry.UpdatedAt), entry.ID, entry.UserID)
	if err != nil {
		if IsUniqueViolation(err) {
			return errors.NewConflictError("time entry", "a timer is already running")
		}
		if IsForeignKeyViolation(err) {
			return errors.NewNotFoundError("project", idString(entry.ProjectID))
		}
		return HandleDatabaseError("update time entry", err)
	}
	return ValidateRowsAffected(result, "time entry", idString(entry.ID))
}

// DeleteTimeEntry deletes a time entry by ID
func (r *SQLiteRepository) DeleteTimeEntry(ctx context.Context, userID, id int64) error {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `DELETE FROM time_entries WHERE id = ? AND user_id = ?`
	return ExecuteWithRowsAffected(ctx, r.ext, query, "time entry", idString(id), id, userID)
}

// MarkTimeEntriesBilled attaches stopped, billable, unbilled entries to an invoice.
// Every listed entry must qualify or nothing is changed by the caller's transaction.
func (r *SQLiteRepository) MarkTimeEntriesBilled(ctx context.Context, userID, invoiceID int64, entryIDs []int64) error {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	now := FormatTimeForDB(time.Now())
	query := `
	UPDATE time_entries
	SET is_billed = 1, invoice_id = ?, updated_at = ?
	WHERE id = ? AND user_id = ? AND end_time IS NOT NULL
		AND is_billable = 1 AND is_billed = 0 AND invoice_id IS NULL`

	for _, id := range entryIDs {
		result, err := r.ext.ExecContext(ctx, query, invoiceID, now, id, userID)
		if err != nil {
			return HandleDatabaseError("bill time entry", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return HandleDatabaseError("get rows affected", err)
		}
		if affected == 0 {
			return errors.NewNotFoundError("billable time entry", idString(id))
		}
	}
	return nil
}

// ReleaseTimeEntries detaches every entry from an invoice and clears the billed flag
func (r *SQLiteRepository) ReleaseTimeEntries(ctx context.Context, userID, invoiceID int64) error {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `
	UPDATE time_entries
	SET is_billed = 0, invoice_id = NULL, updated_at = ?
	WHERE user_id = ? AND invoice_id = ?`
	if _, err := r.ext.ExecContext(ctx, query, FormatTimeForDB(time.Now()), userID, invoiceID); err != nil {
		return HandleDatabaseError("release time entries", err)
	}
	return nil
}
