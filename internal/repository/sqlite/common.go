package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/jmoiron/sqlx"
	moderncsqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"freelancer/internal/errors"
)

// row is implemented by the column-shaped scan targets in scanner.go.
type row[T any] interface {
	toModel() (*T, error)
}

// HandleDatabaseError converts database errors to structured app errors
func HandleDatabaseError(operation string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError(operation, "query timeout")
	}
	return errors.NewDatabaseError(operation, err)
}

// HandleNoRowsError handles sql.ErrNoRows errors consistently
func HandleNoRowsError(err error, entityType string, id string) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NewNotFoundError(entityType, id)
	}
	return err
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint or index.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqlErr *moderncsqlite.Error
	if stderrors.As(err, &sqlErr) && sqlErr.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err came from a foreign key check.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqlErr *moderncsqlite.Error
	if stderrors.As(err, &sqlErr) && sqlErr.Code() == sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// ValidateRowsAffected checks if a database operation affected the expected number of rows
func ValidateRowsAffected(result sql.Result, entityType string, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return HandleDatabaseError("get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError(entityType, id)
	}
	return nil
}

// ExecuteWithLastInsertID executes a query and returns the last insert ID.
// The raw driver error is returned on failure so callers can classify
// constraint violations.
func ExecuteWithLastInsertID(ctx context.Context, db sqlx.ExecerContext, query string, args ...interface{}) (int64, error) {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, HandleDatabaseError("get last insert ID", err)
	}

	return id, nil
}

// ExecuteWithRowsAffected executes a query and validates that rows were affected
func ExecuteWithRowsAffected(ctx context.Context, db sqlx.ExecerContext, query string, entityType string, id string, args ...interface{}) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return HandleDatabaseError("execute query", err)
	}

	return ValidateRowsAffected(result, entityType, id)
}

// QuerySingle executes a query that returns a single row and converts it
func QuerySingle[T any, R any, PR interface {
	*R
	row[T]
}](ctx context.Context, db sqlx.QueryerContext, query string, entityType string, id string, args ...interface{}) (*T, error) {
	var r R
	if err := sqlx.GetContext(ctx, db, &r, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError(entityType, id)
		}
		return nil, HandleDatabaseError("scan "+entityType, err)
	}
	result, err := PR(&r).toModel()
	if err != nil {
		return nil, HandleDatabaseError("scan "+entityType, err)
	}
	return result, nil
}

// QueryMultiple executes a query that returns multiple rows and converts them
func QueryMultiple[T any, R any, PR interface {
	*R
	row[T]
}](ctx context.Context, db sqlx.QueryerContext, query string, entityType string, args ...interface{}) ([]*T, error) {
	var rows []R
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, HandleDatabaseError("query "+entityType, err)
	}

	results := make([]*T, 0, len(rows))
	for i := range rows {
		result, err := PR(&rows[i]).toModel()
		if err != nil {
			return nil, HandleDatabaseError("scan "+entityType, err)
		}
		results = append(results, result)
	}

	return results, nil
}
