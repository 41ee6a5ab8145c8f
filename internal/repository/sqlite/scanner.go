package sqlite

import (
	"database/sql"
	"fmt"
)

// Rows are scanned by sqlx into these column-shaped structs and then
// converted into the exported models.

type userRow struct {
	ID        int64  `db:"id"`
	Email     string `db:"email"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
}

func (r *userRow) toModel() (*User, error) {
	createdAt, err := ParseTimeFromDB(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing user created_at: %w", err)
	}
	return &User{ID: r.ID, Email: r.Email, Name: r.Name, CreatedAt: createdAt}, nil
}

type clientRow struct {
	ID        int64  `db:"id"`
	UserID    int64  `db:"user_id"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r *clientRow) toModel() (*Client, error) {
	createdAt, err := ParseTimeFromDB(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing client created_at: %w", err)
	}
	updatedAt, err := ParseTimeFromDB(r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing client updated_at: %w", err)
	}
	return &Client{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Email:     r.Email,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

type projectRow struct {
	ID         int64          `db:"id"`
	UserID     int64          `db:"user_id"`
	ClientID   int64          `db:"client_id"`
	Name       string         `db:"name"`
	HourlyRate sql.NullString `db:"hourly_rate"`
	CreatedAt  string         `db:"created_at"`
	UpdatedAt  string         `db:"updated_at"`
}

func (r *projectRow) toModel() (*Project, error) {
	createdAt, err := ParseTimeFromDB(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing project created_at: %w", err)
	}
	updatedAt, err := ParseTimeFromDB(r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing project updated_at: %w", err)
	}
	return &Project{
		ID:         r.ID,
		UserID:     r.UserID,
		ClientID:   r.ClientID,
		Name:       r.Name,
		HourlyRate: stringPtr(r.HourlyRate),
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

type taskRow struct {
	ID        int64  `db:"id"`
	UserID    int64  `db:"user_id"`
	ProjectID int64  `db:"project_id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
}

func (r *taskRow) toModel() (*Task, error) {
	createdAt, err := ParseTimeFromDB(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing task created_at: %w", err)
	}
	return &Task{
		ID:        r.ID,
		UserID:    r.UserID,
		ProjectID: r.ProjectID,
		Name:      r.Name,
		CreatedAt: createdAt,
	}, nil
}

type timeEntryRow struct {
	ID              int64          `db:"id"`
	UserID          int64          `db:"user_id"`
	ProjectID       int64          `db:"project_id"`
	TaskID          sql.NullInt64  `db:"task_id"`
	StartTime       string         `db:"start_time"`
	EndTime         sql.NullString `db:"end_time"`
	DurationMinutes sql.NullInt64  `db:"duration_minutes"`
	Description     string         `db:"description"`
	IsBillable      bool           `db:"is_billable"`
	IsBilled        bool           `db:"is_billed"`
	InvoiceID       sql.NullInt64  `db:"invoice_id"`
	CreatedAt       string         `db:"created_at"`
	UpdatedAt       string         `db:"updated_at"`
}

func (r *timeEntryRow) toModel() (*TimeEntry, error) {
	startTime, err := ParseTimeFromDB(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parsing time entry start_time: %w", err)
	}
	endTime, err := ParseNullTimeFromDB(r.EndTime)
	if err != nil {
		return nil, fmt.Errorf("parsing time entry end_time: %w", err)
	}
	createdAt, err := ParseTimeFromDB(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing time entry created_at: %w", err)
	}
	updatedAt, err := ParseTimeFromDB(r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing time entry updated_at: %w", err)
	}
	return &TimeEntry{
		ID:              r.ID,
		UserID:          r.UserID,
		ProjectID:       r.ProjectID,
		TaskID:          int64Ptr(r.TaskID),
		StartTime:       startTime,
		EndTime:         endTime,
		DurationMinutes: intPtr(r.DurationMinutes),
		Description:     r.Description,
		IsBillable:      r.IsBillable,
		IsBilled:        r.IsBilled,
		InvoiceID:       int64Ptr(r.InvoiceID),
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

type invoiceRow struct {
	ID            int64          `db:"id"`
	UserID        int64          `db:"user_id"`
	ClientID      int64          `db:"client_id"`
	ProjectID     sql.NullInt64  `db:"project_id"`
	InvoiceNumber string         `db:"invoice_number"`
	IssueDate     string         `db:"issue_date"`
	DueDate       string         `db:"due_date"`
	Status        string         `db:"status"`
	Subtotal      string         `db:"subtotal"`
	TaxRate       string         `db:"tax_rate"`
	TaxAmount     string         `db:"tax_amount"`
	Discount      string         `db:"discount"`
	TotalAmount   string         `db:"total_amount"`
	Currency      string         `db:"currency"`
	Notes         string         `db:"notes"`
	PaidDate      sql.NullString `db:"paid_date"`
	CreatedAt     string         `db:"created_at"`
	UpdatedAt     string         `db:"updated_at"`
}

func (r *invoiceRow) toModel() (*Invoice, error) {
	issueDate, err := ParseDateFromDB(r.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("parsing invoice issue_date: %w", err)
	}
	dueDate, err := ParseDateFromDB(r.DueDate)
	if err != nil {
		return nil, fmt.Errorf("parsing invoice due_date: %w", err)
	}
	paidDate, err := ParseNullTimeFromDB(r.PaidDate)
	if err != nil {
		return nil, fmt.Errorf("parsing invoice paid_date: %w", err)
	}
	createdAt, err := ParseTimeFromDB(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing invoice created_at: %w", err)
	}
	updatedAt, err := ParseTimeFromDB(r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing invoice updated_at: %w", err)
	}
	return &Invoice{
		ID:            r.ID,
		UserID:        r.UserID,
		ClientID:      r.ClientID,
		ProjectID:     int64Ptr(r.ProjectID),
		InvoiceNumber: r.InvoiceNumber,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		Status:        r.Status,
		Subtotal:      r.Subtotal,
		TaxRate:       r.TaxRate,
		TaxAmount:     r.TaxAmount,
		Discount:      r.Discount,
		TotalAmount:   r.TotalAmount,
		Currency:      r.Currency,
		Notes:         r.Notes,
		PaidDate:      paidDate,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

type invoiceItemRow struct {
	ID          int64  `db:"id"`
	InvoiceID   int64  `db:"invoice_id"`
	Description string `db:"description"`
	Quantity    string `db:"quantity"`
	UnitPrice   string `db:"unit_price"`
	Total       string `db:"total"`
}

func (r *invoiceItemRow) toModel() (*InvoiceItem, error) {
	return &InvoiceItem{
		ID:          r.ID,
		InvoiceID:   r.InvoiceID,
		Description: r.Description,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
		Total:       r.Total,
	}, nil
}
