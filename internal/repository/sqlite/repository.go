package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"freelancer/internal/errors"
	"freelancer/internal/repository/sqlite/migrations"
)

// SearchOptions filters time entries. UserID is always required.
type SearchOptions struct {
	UserID    int64
	ProjectID *int64
	From      *time.Time
	To        *time.Time
	Billable  *bool
	Billed    *bool
	InvoiceID *int64
	Running   *bool
}

// InvoiceFilter filters invoices. UserID is required unless AllUsers is
// set, which only background jobs do.
type InvoiceFilter struct {
	UserID    int64
	AllUsers  bool
	ClientID  *int64
	Status    *string
	DueBefore *time.Time
}

// Repository defines the interface for database operations.
// Every read and write of user data is scoped by the owning user id.
type Repository interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id int64) (*User, error)

	// Clients
	CreateClient(ctx context.Context, client *Client) error
	GetClient(ctx context.Context, userID, id int64) (*Client, error)
	ListClients(ctx context.Context, userID int64) ([]*Client, error)
	UpdateClient(ctx context.Context, client *Client) error
	DeleteClient(ctx context.Context, userID, id int64) error

	// Projects
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, userID, id int64) (*Project, error)
	ListProjects(ctx context.Context, userID int64, clientID *int64) ([]*Project, error)
	UpdateProject(ctx context.Context, project *Project) error
	DeleteProject(ctx context.Context, userID, id int64) error

	// Tasks
	CreateTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, userID, id int64) (*Task, error)
	ListTasks(ctx context.Context, userID, projectID int64) ([]*Task, error)

	// Time entries
	CreateTimeEntry(ctx context.Context, entry *TimeEntry) error
	GetTimeEntry(ctx context.Context, userID, id int64) (*TimeEntry, error)
	GetRunningTimeEntry(ctx context.Context, userID int64) (*TimeEntry, error)
	ListRunningTimeEntries(ctx context.Context, startedBefore time.Time) ([]*TimeEntry, error)
	SearchTimeEntries(ctx context.Context, opts SearchOptions) ([]*TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, entry *TimeEntry) error
	DeleteTimeEntry(ctx context.Context, userID, id int64) error
	MarkTimeEntriesBilled(ctx context.Context, userID, invoiceID int64, entryIDs []int64) error
	ReleaseTimeEntries(ctx context.Context, userID, invoiceID int64) error

	// Invoices
	CreateInvoice(ctx context.Context, invoice *Invoice) error
	GetInvoice(ctx context.Context, userID, id int64) (*Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]*Invoice, error)
	InvoiceNumberExists(ctx context.Context, userID int64, number string, excludeID int64) (bool, error)
	UpdateInvoice(ctx context.Context, invoice *Invoice) error
	ReplaceInvoiceItems(ctx context.Context, invoice *Invoice) error
	UpdateInvoiceStatus(ctx context.Context, invoice *Invoice) error
	DeleteInvoice(ctx context.Context, userID, id int64) error

	// WithTx runs fn inside one transaction. fn must only use the repository it is given.
	WithTx(ctx context.Context, fn func(Repository) error) error

	// Utility
	Close() error
}

// Options configures the SQLite repository.
type Options struct {
	Path         string
	BusyTimeout  time.Duration
	QueryTimeout time.Duration
}

// SQLiteRepository implements the Repository interface
type SQLiteRepository struct {
	db           *sqlx.DB
	ext          sqlx.ExtContext
	inTx         bool
	queryTimeout time.Duration
}

// New creates a new SQLite repository instance with default options
func New(dbPath string) (*SQLiteRepository, error) {
	return Open(context.Background(), Options{Path: dbPath})
}

// Open opens the database, applies pragmas and runs migrations.
func Open(ctx context.Context, opts Options) (*SQLiteRepository, error) {
	db, err := sqlx.Open("sqlite", opts.Path)
	if err != nil {
		return nil, errors.NewDatabaseError("open database", err)
	}

	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	busyTimeout := opts.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()),
		"PRAGMA journal_mode = WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, errors.NewDatabaseError("apply "+pragma, err)
		}
	}

	if err := migrations.RunMigrations(ctx, db.DB); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("run migrations", err)
	}

	return &SQLiteRepository{db: db, ext: db, queryTimeout: opts.QueryTimeout}, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// scope bounds a single repository call by the query timeout. Calls made
// inside a transaction share the deadline set by WithTx.
func (r *SQLiteRepository) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.inTx || r.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

// WithTx runs fn in a transaction, committing when fn returns nil.
// Nested calls reuse the outer transaction.
func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	ctx, cancel := r.scope(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return HandleDatabaseError("begin transaction", err)
	}
	defer tx.Rollback()

	txRepo := &SQLiteRepository{db: r.db, ext: tx, inTx: true, queryTimeout: r.queryTimeout}
	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return HandleDatabaseError("commit transaction", err)
	}
	return nil
}

func idString(id int64) string {
	return fmt.Sprintf("%d", id)
}

// CreateUser creates a new user
func (r *SQLiteRepository) CreateUser(ctx context.Context, user *User) error {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	query := `INSERT INTO users (email, name, created_at) VALUES (?, ?, ?)`
	id, err := ExecuteWithLastInsertID(ctx, r.ext, query, user.Email, user.Name, FormatTimeForDB(user.CreatedAt))
	if err != nil {
		if IsUniqueViolation(err) {
			return errors.NewDuplicateError("user", "email", user.Email)
		}
		return HandleDatabaseError("create user", err)
	}
	user.ID = id
	return nil
}

// GetUser retrieves a user by ID
func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `SELECT id, email, name, created_at FROM users WHERE id = ?`
	return QuerySingle[User, userRow](ctx, r.ext, query, "user", idString(id), id)
}

// CreateClient creates a new client
func (r *SQLiteRepository) CreateClient(ctx context.Context, client *Client) error {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	stampCreated(&client.CreatedAt, &client.UpdatedAt)
	query := `
	INSERT INTO clients (user_id, name, email, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)`
	id, err := ExecuteWithLastInsertID(ctx, r.ext, query,
		client.UserID, client.Name, client.Email,
		FormatTimeForDB(client.CreatedAt), FormatTimeForDB(client.UpdatedAt))
	if err != nil {
		if IsForeignKeyViolation(err) {
			return errors.NewNotFoundError("user", idString(client.UserID))
		}
		return HandleDatabaseError("create client", err)
	}
	client.ID = id
	return nil
}

// GetClient retrieves a client owned by userID
func (r *SQLiteRepository) GetClient(ctx context.Context, userID, id int64) (*Client, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `
	SELECT id, user_id, name, email, created_at, updated_at
	FROM clients
	WHERE id = ? AND user_id = ?`
	return QuerySingle[Client, clientRow](ctx, r.ext, query, "client", idString(id), id, userID)
}

// ListClients retrieves all clients of a user
func (r *SQLiteRepository) ListClients(ctx context.Context, userID int64) ([]*Client, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `
	SELECT id, user_id, name, email, created_at, updated_at
	FROM clients
	WHERE user_id = ?
	ORDER BY name ASC, id ASC`
	return QueryMultiple[Client, clientRow](ctx, r.ext, query, "clients", userID)
}

// UpdateClient updates an existing client
func (r *SQLiteRepository) UpdateClient(ctx context.Context, client *Client) error {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	client.UpdatedAt = time.Now()
	query := `
	UPDATE clients
	SET name = ?, email = ?, updated_at = ?
	WHERE id = ? AND user_id = ?`
	return ExecuteWithRowsAffected(ctx, r.ext, query, "client", idString(client.ID),
		client.Name, client.Email, FormatTimeForDB(client.UpdatedAt), client.ID, client.UserID)
}

// DeleteClient deletes a client. Clients that still have invoices cannot be deleted.
func (r *SQLiteRepository) DeleteClient(ctx context.Context, userID, id int64) error {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	result, err := r.ext.ExecContext(ctx, `DELETE FROM clients WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return errors.NewConflictError("client", "client still has invoices")
		}
		return HandleDatabaseError("delete client", err)
	}
	return ValidateRowsAffected(result, "client", idString(id))
}

// CreateProject creates a new project
func (r *SQLiteRepository) CreateProject(ctx context.Context, project *Project) error {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	stampCreated(&project.CreatedAt, &project.UpdatedAt)
	query := `
	INSERT INTO projects (user_id, client_id, name, hourly_rate, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	id, err := ExecuteWithLastInsertID(ctx, r.ext, query,
		project.UserID, project.ClientID, project.Name, nullString(project.HourlyRate),
		FormatTimeForDB(project.CreatedAt), FormatTimeForDB(project.UpdatedAt))
	if err != nil {
		if IsForeignKeyViolation(err) {
			return errors.NewNotFoundError("client", idString(project.ClientID))
		}
		return HandleDatabaseError("create project", err)
	}
	project.ID = id
	return nil
}

// GetProject retrieves a project owned by userID
func (r *SQLiteRepository) GetProject(ctx context.Context, userID, id int64) (*Project, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `
	SELECT id, user_id, client_id, name, hourly_rate, created_at, updated_at
	FROM projects
	WHERE id = ? AND user_id = ?`
	return QuerySingle[Project, projectRow](ctx, r.ext, query, "project", idString(id), id, userID)
}

// ListProjects retrieves the projects of a user, optionally for one client
func (r *SQLiteRepository) ListProjects(ctx context.Context, userID int64, clientID *int64) ([]*Project, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `
	SELECT id, user_id, client_id, name, hourly_rate, created_at, updated_at
	FROM projects
	WHERE user_id = ?`
	args := []interface{}{userID}
	if clientID != nil {
		query += " AND client_id = ?"
		args = append(args, *clientID)
	}
	query += " ORDER BY name ASC, id ASC"
	return QueryMultiple[Project, projectRow](ctx, r.ext, query, "projects", args...)
}

// UpdateProject updates an existing project
func (r *SQLiteRepository) UpdateProject(ctx context.Context, project *Project) error {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	project.UpdatedAt = time.Now()
	query := `
	UPDATE projects
	SET client_id = ?, name = ?, hourly_rate = ?, updated_at = ?
	WHERE id = ? AND user_id = ?`
	result, err := r.ext.ExecContext(ctx, query,
		project.ClientID, project.Name, nullString(project.HourlyRate), FormatTimeForDB(project.UpdatedAt),
		project.ID, project.UserID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return errors.NewNotFoundError("client", idString(project.ClientID))
		}
		return HandleDatabaseError("update project", err)
	}
	return ValidateRowsAffected(result, "project", idString(project.ID))
}

// DeleteProject deletes a project with its tasks and time entries
func (r *SQLiteRepository) DeleteProject(ctx context.Context, userID, id int64) error {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `DELETE FROM projects WHERE id = ? AND user_id = ?`
	return ExecuteWithRowsAffected(ctx, r.ext, query, "project", idString(id), id, userID)
}

// CreateTask creates a new task
func (r *SQLiteRepository) CreateTask(ctx context.Context, task *Task) error {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	query := `INSERT INTO tasks (user_id, project_id, name, created_at) VALUES (?, ?, ?, ?)`
	id, err := ExecuteWithLastInsertID(ctx, r.ext, query, task.UserID, task.ProjectID, task.Name, FormatTimeForDB(task.CreatedAt))
	if err != nil {
		if IsForeignKeyViolation(err) {
			return errors.NewNotFoundError("project", idString(task.ProjectID))
		}
		return HandleDatabaseError("create task", err)
	}
	task.ID = id
	return nil
}

// GetTask retrieves a task owned by userID
func (r *SQLiteRepository) GetTask(ctx context.Context, userID, id int64) (*Task, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `SELECT id, user_id, project_id, name, created_at FROM tasks WHERE id = ? AND user_id = ?`
	return QuerySingle[Task, taskRow](ctx, r.ext, query, "task", idString(id), id, userID)
}

// ListTasks retrieves the tasks of a project
func (r *SQLiteRepository) ListTasks(ctx context.Context, userID, projectID int64) ([]*Task, error) {
	ctx, cancel := r.scope(ctx)
	defer cancel()

	query := `
	SELECT id, user_id, project_id, name, created_at
	FROM tasks
	WHERE user_id = ? AND project_id = ?
	ORDER BY name ASC, id ASC`
	return QueryMultiple[Task, taskRow](ctx, r.ext, query, "tasks", userID, projectID)
}

func stampCreated(createdAt, updatedAt *time.Time) {
	if createdAt.IsZero() {
		*createdAt = time.Now()
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}

var _ Repository = (*SQLiteRepository)(nil)
