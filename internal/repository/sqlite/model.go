package sqlite

import "time"

// User is the owner of every other row.
type User struct {
	ID        int64
	Email     string
	Name      string
	CreatedAt time.Time
}

// Client is a customer of a user.
type Client struct {
	ID        int64
	UserID    int64
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Project belongs to a client. HourlyRate is a decimal string.
type Project struct {
	ID         int64
	UserID     int64
	ClientID   int64
	Name       string
	HourlyRate *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Task is a named unit of work within a project.
type Task struct {
	ID        int64
	UserID    int64
	ProjectID int64
	Name      string
	CreatedAt time.Time
}

// TimeEntry represents a single time tracking entry.
// EndTime is nil while the entry is running.
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

// Invoice is an invoice header. Money columns are canonical decimal strings.
type Invoice struct {
	ID            int64
	UserID        int64
	ClientID      int64
	ProjectID     *int64
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       time.Time
	Status        string
	Subtotal      string
	TaxRate       string
	TaxAmount     string
	Discount      string
	TotalAmount   string
	Currency      string
	Notes         string
	PaidDate      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Items         []InvoiceItem
}

// InvoiceItem is one line of an invoice.
type InvoiceItem struct {
	ID          int64
	InvoiceID   int64
	Description string
	Quantity    string
	UnitPrice   string
	Total       string
}
