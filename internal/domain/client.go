package domain

import (
	"time"

	"github.com/cockroachdb/apd/v3"
)

// User owns every other entity. Authentication lives outside this module.
type User struct {
	ID        int64
	Email     string
	Name      string
	CreatedAt time.Time
}

// Client is a customer the user bills.
type Client struct {
	ID        int64
	UserID    int64
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Project groups time entries and tasks under a client.
type Project struct {
	ID         int64
	UserID     int64
	ClientID   int64
	Name       string
	HourlyRate *apd.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OwnedBy reports whether the project belongs to the user.
func (p Project) OwnedBy(userID int64) bool {
	return p.UserID == userID
}
