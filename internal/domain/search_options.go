package domain

import "time"

// SearchOptions filters time entries of one user.
type SearchOptions struct {
	ProjectID *int64
	From      *time.Time
	To        *time.Time
	Billable  *bool
	Billed    *bool
	InvoiceID *int64
	Running   *bool
}

// InvoiceSearch filters invoices of one user.
type InvoiceSearch struct {
	ClientID *int64
	Status   *InvoiceStatus
}
