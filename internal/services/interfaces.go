package services

import (
	"context"
	"time"

	"freelancer/internal/domain"
	"freelancer/internal/validation"
)

// Clock supplies the current instant. Tests inject a fixed clock so
// durations come out exact.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// TimeEntryUpdate is a conditional patch. ClearEndTime records an explicit
// null end time, which is rejected.
type TimeEntryUpdate struct {
	Patch        domain.TimeEntryPatch
	ClearEndTime bool
}

// TimerService runs the server side of the timer state machine
type TimerService interface {
	Start(ctx context.Context, userID, projectID int64, taskID *int64, description string) (*domain.TimeEntry, error)
	Stop(ctx context.Context, userID, entryID int64) (*domain.TimeEntry, error)
	Current(ctx context.Context, userID int64) (*domain.TimeEntry, error)

	// SweepAbandoned closes running entries of every user started more than
	// maxAge ago, ending them at start + maxAge.
	SweepAbandoned(ctx context.Context, maxAge time.Duration) ([]*domain.TimeEntry, error)
}

// TimeEntryService handles manual time entries
type TimeEntryService interface {
	Create(ctx context.Context, userID int64, in validation.TimeEntryInput) (*domain.TimeEntry, error)
	Get(ctx context.Context, userID, id int64) (*domain.TimeEntry, error)
	List(ctx context.Context, userID int64, opts domain.SearchOptions) ([]*domain.TimeEntry, error)
	Update(ctx context.Context, userID, id int64, update TimeEntryUpdate) (*domain.TimeEntry, error)
	Delete(ctx context.Context, userID, id int64) error
}

// InvoiceService computes invoice totals and drives the invoice lifecycle
type InvoiceService interface {
	Create(ctx context.Context, userID int64, in validation.InvoiceInput) (*domain.Invoice, error)
	Get(ctx context.Context, userID, id int64) (*domain.Invoice, error)
	List(ctx context.Context, userID int64, search domain.InvoiceSearch) ([]*domain.Invoice, error)
	Update(ctx context.Context, userID, id int64, in validation.InvoicePatchInput) (*domain.Invoice, error)
	Send(ctx context.Context, userID, id int64) (*domain.Invoice, error)
	MarkPaid(ctx context.Context, userID, id int64, paidDate *string) (*domain.Invoice, error)
	Cancel(ctx context.Context, userID, id int64) (*domain.Invoice, error)
	MarkOverdue(ctx context.Context, userID int64) ([]*domain.Invoice, error)
	SweepOverdue(ctx context.Context) ([]*domain.Invoice, error)
	Delete(ctx context.Context, userID, id int64) error
}

// ClientService manages users, clients, projects and tasks
type ClientService interface {
	CreateUser(ctx context.Context, email, name string) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)

	CreateClient(ctx context.Context, userID int64, in validation.ClientInput) (*domain.Client, error)
	GetClient(ctx context.Context, userID, id int64) (*domain.Client, error)
	ListClients(ctx context.Context, userID int64) ([]*domain.Client, error)
	UpdateClient(ctx context.Context, userID, id int64, in validation.ClientInput) (*domain.Client, error)
	DeleteClient(ctx context.Context, userID, id int64) error

	CreateProject(ctx context.Context, userID int64, in validation.ProjectInput) (*domain.Project, error)
	GetProject(ctx context.Context, userID, id int64) (*domain.Project, error)
	ListProjects(ctx context.Context, userID int64, clientID *int64) ([]*domain.Project, error)
	UpdateProject(ctx context.Context, userID, id int64, in validation.ProjectInput) (*domain.Project, error)
	DeleteProject(ctx context.Context, userID, id int64) error

	CreateTask(ctx context.Context, userID, projectID int64, name string) (*domain.Task, error)
	ListTasks(ctx context.Context, userID, projectID int64) ([]*domain.Task, error)
}

// WorkSummary totals the time logged in a window, per project
type WorkSummary struct {
	From            *time.Time
	To              *time.Time
	TotalMinutes    int
	BillableMinutes int
	UnbilledMinutes int
	Projects        []*ProjectActivity
}

// ReportingService aggregates logged time for review before invoicing
type ReportingService interface {
	Summarize(ctx context.Context, userID int64, opts domain.SearchOptions) (*WorkSummary, error)
	SummarizeSince(ctx context.Context, userID int64, shorthand string) (*WorkSummary, error)
}

// ServiceContainer manages all services and their dependencies
type ServiceContainer struct {
	Timer       TimerService
	TimeEntries TimeEntryService
	Invoices    InvoiceService
	Clients     ClientService
	Reporting   ReportingService
}
