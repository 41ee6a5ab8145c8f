package sqlite

import (
	"database/sql"
	"time"
)

// timeLayout is fixed width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const dateLayout = "2006-01-02"

// FormatTimeForDB formats a time.Time value in UTC for consistent database storage
func FormatTimeForDB(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// FormatTimePtrForDB formats a *time.Time value, returning nil if the pointer is nil
func FormatTimePtrForDB(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return FormatTimeForDB(*t)
}

// ParseTimeFromDB parses a stored timestamp. Any RFC3339 form is accepted.
func ParseTimeFromDB(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// ParseNullTimeFromDB parses a nullable timestamp column.
func ParseNullTimeFromDB(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := ParseTimeFromDB(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDateForDB stores the calendar date of t.
func FormatDateForDB(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDateFromDB parses a stored calendar date as midnight UTC.
func ParseDateFromDB(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func nullInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
