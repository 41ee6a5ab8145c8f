package domain

import (
	"github.com/cockroachdb/apd/v3"

	"freelancer/internal/repository/sqlite"
)

// ClientMapper handles conversion between domain and database clients and projects.
type ClientMapper struct{}

// NewClientMapper creates a new ClientMapper instance.
func NewClientMapper() *ClientMapper {
	return &ClientMapper{}
}

// UserFromDatabase converts a database User to a domain User.
func (m *ClientMapper) UserFromDatabase(dbUser sqlite.User) User {
	return User{
		ID:        dbUser.ID,
		Email:     dbUser.Email,
		Name:      dbUser.Name,
		CreatedAt: dbUser.CreatedAt,
	}
}

// ToDatabase converts a domain Client to a database Client.
func (m *ClientMapper) ToDatabase(c Client) sqlite.Client {
	return sqlite.Client{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// FromDatabase converts a database Client to a domain Client.
func (m *ClientMapper) FromDatabase(c sqlite.Client) Client {
	return Client{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ProjectToDatabase converts a domain Project to a database Project.
func (m *ClientMapper) ProjectToDatabase(p Project) sqlite.Project {
	var rate *string
	if p.HourlyRate != nil {
		s := FormatDecimal(*p.HourlyRate)
		rate = &s
	}
	return sqlite.Project{
		ID:         p.ID,
		UserID:     p.UserID,
		ClientID:   p.ClientID,
		Name:       p.Name,
		HourlyRate: rate,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// ProjectFromDatabase converts a database Project to a domain Project.
func (m *ClientMapper) ProjectFromDatabase(p sqlite.Project) (Project, error) {
	project := Project{
		ID:        p.ID,
		UserID:    p.UserID,
		ClientID:  p.ClientID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.HourlyRate != nil {
		rate, err := ParseDecimal(*p.HourlyRate)
		if err != nil {
			return Project{}, err
		}
		project.HourlyRate = &rate
	}
	return project, nil
}

// TaskMapper handles conversion between domain and database Task models.
type TaskMapper struct{}

// NewTaskMapper creates a new TaskMapper instance.
func NewTaskMapper() *TaskMapper {
	return &TaskMapper{}
}

// ToDatabase converts a domain Task to a database Task.
func (m *TaskMapper) ToDatabase(domainTask Task) sqlite.Task {
	return sqlite.Task{
		ID:        domainTask.ID,
		UserID:    domainTask.UserID,
		ProjectID: domainTask.ProjectID,
		Name:      domainTask.Name,
		CreatedAt: domainTask.CreatedAt,
	}
}

// FromDatabase converts a database Task to a domain Task.
func (m *TaskMapper) FromDatabase(dbTask sqlite.Task) Task {
	return Task{
		ID:        dbTask.ID,
		UserID:    dbTask.UserID,
		ProjectID: dbTask.ProjectID,
		Name:      dbTask.Name,
		CreatedAt: dbTask.CreatedAt,
	}
}

// FromDatabaseSlice converts a slice of database Tasks to domain Tasks.
func (m *TaskMapper) FromDatabaseSlice(dbTasks []*sqlite.Task) []Task {
	domainTasks := make([]Task, len(dbTasks))
	for i, task := range dbTasks {
		domainTasks[i] = m.FromDatabase(*task)
	}
	return domainTasks
}

// TimeEntryMapper handles conversion between domain and database TimeEntry models.
type TimeEntryMapper struct{}

// NewTimeEntryMapper creates a new TimeEntryMapper instance.
func NewTimeEntryMapper() *TimeEntryMapper {
	return &TimeEntryMapper{}
}

// ToDatabase converts a domain TimeEntry to a database TimeEntry.
func (m *TimeEntryMapper) ToDatabase(e TimeEntry) sqlite.TimeEntry {
	return sqlite.TimeEntry{
		ID:              e.ID,
		UserID:          e.UserID,
		ProjectID:       e.ProjectID,
		TaskID:          e.TaskID,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		DurationMinutes: e.DurationMinutes,
		Description:     e.Description,
		IsBillable:      e.IsBillable,
		IsBilled:        e.IsBilled,
		InvoiceID:       e.InvoiceID,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// FromDatabase converts a database TimeEntry to a domain TimeEntry.
func (m *TimeEntryMapper) FromDatabase(e sqlite.TimeEntry) TimeEntry {
	return TimeEntry{
		ID:              e.ID,
		UserID:          e.UserID,
		ProjectID:       e.ProjectID,
		TaskID:          e.TaskID,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		DurationMinutes: e.DurationMinutes,
		Description:     e.Description,
		IsBillable:      e.IsBillable,
		IsBilled:        e.IsBilled,
		InvoiceID:       e.InvoiceID,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// FromDatabaseSlice converts a slice of database TimeEntries to domain TimeEntries.
func (m *TimeEntryMapper) FromDatabaseSlice(dbEntries []*sqlite.TimeEntry) []TimeEntry {
	domainEntries := make([]TimeEntry, len(dbEntries))
	for i, entry := range dbEntries {
		domainEntries[i] = m.FromDatabase(*entry)
	}
	return domainEntries
}

// InvoiceMapper handles conversion between domain and database invoices.
// Money travels as canonical decimal strings.
type InvoiceMapper struct{}

// NewInvoiceMapper creates a new InvoiceMapper instance.
func NewInvoiceMapper() *InvoiceMapper {
	return &InvoiceMapper{}
}

// ToDatabase converts a domain Invoice to a database Invoice.
func (m *InvoiceMapper) ToDatabase(inv Invoice) sqlite.Invoice {
	items := make([]sqlite.InvoiceItem, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = sqlite.InvoiceItem{
			ID:          item.ID,
			InvoiceID:   item.InvoiceID,
			Description: item.Description,
			Quantity:    FormatDecimal(item.Quantity),
			UnitPrice:   FormatDecimal(item.UnitPrice),
			Total:       FormatDecimal(item.Total),
		}
	}
	return sqlite.Invoice{
		ID:            inv.ID,
		UserID:        inv.UserID,
		ClientID:      inv.ClientID,
		ProjectID:     inv.ProjectID,
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Status:        string(inv.Status),
		Subtotal:      FormatDecimal(inv.Subtotal),
		TaxRate:       FormatDecimal(inv.TaxRate),
		TaxAmount:     FormatDecimal(inv.TaxAmount),
		Discount:      FormatDecimal(inv.Discount),
		TotalAmount:   FormatDecimal(inv.TotalAmount),
		Currency:      inv.Currency,
		Notes:         inv.Notes,
		PaidDate:      inv.PaidDate,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		Items:         items,
	}
}

// FromDatabase converts a database Invoice to a domain Invoice.
func (m *InvoiceMapper) FromDatabase(inv sqlite.Invoice) (Invoice, error) {
	result := Invoice{
		ID:            inv.ID,
		UserID:        inv.UserID,
		ClientID:      inv.ClientID,
		ProjectID:     inv.ProjectID,
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Status:        InvoiceStatus(inv.Status),
		Currency:      inv.Currency,
		Notes:         inv.Notes,
		PaidDate:      inv.PaidDate,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}

	money := []struct {
		dst *apd.Decimal
		src string
	}{
		{&result.Subtotal, inv.Subtotal},
		{&result.TaxRate, inv.TaxRate},
		{&result.TaxAmount, inv.TaxAmount},
		{&result.Discount, inv.Discount},
		{&result.TotalAmount, inv.TotalAmount},
	}
	for _, field := range money {
		d, err := ParseDecimal(field.src)
		if err != nil {
			return Invoice{}, err
		}
		*field.dst = d
	}

	result.Items = make([]InvoiceItem, len(inv.Items))
	for i, item := range inv.Items {
		quantity, err := ParseDecimal(item.Quantity)
		if err != nil {
			return Invoice{}, err
		}
		unitPrice, err := ParseDecimal(item.UnitPrice)
		if err != nil {
			return Invoice{}, err
		}
		total, err := ParseDecimal(item.Total)
		if err != nil {
			return Invoice{}, err
		}
		result.Items[i] = InvoiceItem{
			ID:          item.ID,
			InvoiceID:   item.InvoiceID,
			Description: item.Description,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			Total:       total,
		}
	}
	return result, nil
}

// SearchOptionsMapper handles conversion between domain and database SearchOptions.
type SearchOptionsMapper struct{}

// NewSearchOptionsMapper creates a new SearchOptionsMapper instance.
func NewSearchOptionsMapper() *SearchOptionsMapper {
	return &SearchOptionsMapper{}
}

// ToDatabase converts domain SearchOptions to database SearchOptions for one user.
func (m *SearchOptionsMapper) ToDatabase(userID int64, opts SearchOptions) sqlite.SearchOptions {
	return sqlite.SearchOptions{
		UserID:    userID,
		ProjectID: opts.ProjectID,
		From:      opts.From,
		To:        opts.To,
		Billable:  opts.Billable,
		Billed:    opts.Billed,
		InvoiceID: opts.InvoiceID,
		Running:   opts.Running,
	}
}

// InvoiceFilterToDatabase converts an InvoiceSearch for one user.
func (m *SearchOptionsMapper) InvoiceFilterToDatabase(userID int64, s InvoiceSearch) sqlite.InvoiceFilter {
	filter := sqlite.InvoiceFilter{UserID: userID, ClientID: s.ClientID}
	if s.Status != nil {
		status := string(*s.Status)
		filter.Status = &status
	}
	return filter
}

// Mapper provides a unified interface for all mapping operations.
type Mapper struct {
	Client        *ClientMapper
	Task          *TaskMapper
	TimeEntry     *TimeEntryMapper
	Invoice       *InvoiceMapper
	SearchOptions *SearchOptionsMapper
}

// NewMapper creates a new Mapper instance with all sub-mappers.
func NewMapper() *Mapper {
	return &Mapper{
		Client:        NewClientMapper(),
		Task:          NewTaskMapper(),
		TimeEntry:     NewTimeEntryMapper(),
		Invoice:       NewInvoiceMapper(),
		SearchOptions: NewSearchOptionsMapper(),
	}
}
