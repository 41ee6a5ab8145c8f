package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"freelancer/internal/domain"
	"freelancer/internal/errors"
	"freelancer/internal/services"
	"freelancer/internal/validation"
)

const (
	maxBodyBytes = 1 << 20
	dateLayout   = "2006-01-02"
)

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return errors.NewValidationError("request body too large or unreadable", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(dst); err != nil {
		return errors.NewValidationError("request body is not valid JSON", err)
	}
	return nil
}

// decimalInput accepts a decimal as a JSON number or string and keeps its
// exact text, so no value passes through float64.
type decimalInput string

func (d *decimalInput) UnmarshalJSON(data []byte) error {
	var text string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	} else {
		var number json.Number
		if err := json.Unmarshal(data, &number); err != nil {
			return err
		}
		text = number.String()
	}
	*d = decimalInput(text)
	return nil
}

func (d *decimalInput) stringPtr() *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}

// optionalTime tells an absent field apart from an explicit null
type optionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *optionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

type startTimerRequest struct {
	ProjectID   int64  `json:"projectId"`
	TaskID      *int64 `json:"taskId"`
	Description string `json:"description"`
}

type timeEntryRequest struct {
	ProjectID   int64      `json:"projectId"`
	TaskID      *int64     `json:"taskId"`
	StartTime   *time.Time `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	Description string     `json:"description"`
	IsBillable  *bool      `json:"isBillable"`
}

func (req timeEntryRequest) toInput() validation.TimeEntryInput {
	return validation.TimeEntryInput{
		ProjectID:   req.ProjectID,
		TaskID:      req.TaskID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
		IsBillable:  req.IsBillable,
	}
}

type timeEntryPatchRequest struct {
	ProjectID   *int64       `json:"projectId"`
	TaskID      *int64       `json:"taskId"`
	StartTime   *time.Time   `json:"startTime"`
	EndTime     optionalTime `json:"endTime"`
	Description *string      `json:"description"`
	IsBillable  *bool        `json:"isBillable"`
}

func (req timeEntryPatchRequest) toUpdate() services.TimeEntryUpdate {
	return services.TimeEntryUpdate{
		Patch: domain.TimeEntryPatch{
			ProjectID:   req.ProjectID,
			TaskID:      req.TaskID,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime.Value,
			Description: req.Description,
			IsBillable:  req.IsBillable,
		},
		ClearEndTime: req.EndTime.Set && req.EndTime.Value == nil,
	}
}

type invoiceItemRequest struct {
	Description string       `json:"description"`
	Quantity    decimalInput `json:"quantity"`
	UnitPrice   decimalInput `json:"unitPrice"`
}

func toItemInputs(items []invoiceItemRequest) []validation.InvoiceItemInput {
	if items == nil {
		return nil
	}
	inputs := make([]validation.InvoiceItemInput, len(items))
	for i, item := range items {
		inputs[i] = validation.InvoiceItemInput{
			Description: item.Description,
			Quantity:    string(item.Quantity),
			UnitPrice:   string(item.UnitPrice),
		}
	}
	return inputs
}

type invoiceRequest struct {
	ClientID      int64                `json:"clientId"`
	ProjectID     *int64               `json:"projectId"`
	InvoiceNumber string               `json:"invoiceNumber"`
	IssueDate     string               `json:"issueDate"`
	DueDate       string               `json:"dueDate"`
	TaxRate       *decimalInput        `json:"taxRate"`
	Currency      string               `json:"currency"`
	Notes         string               `json:"notes"`
	Items         []invoiceItemRequest `json:"items"`
	TimeEntryIDs  []int64              `json:"timeEntryIds"`
}

func (req invoiceRequest) toInput() validation.InvoiceInput {
	return validation.InvoiceInput{
		ClientID:      req.ClientID,
		ProjectID:     req.ProjectID,
		InvoiceNumber: req.InvoiceNumber,
		IssueDate:     req.IssueDate,
		DueDate:       req.DueDate,
		TaxRate:       req.TaxRate.stringPtr(),
		Currency:      req.Currency,
		Notes:         req.Notes,
		Items:         toItemInputs(req.Items),
		TimeEntryIDs:  req.TimeEntryIDs,
	}
}

type invoicePatchRequest struct {
	InvoiceNumber *string              `json:"invoiceNumber"`
	IssueDate     *string              `json:"issueDate"`
	DueDate       *string              `json:"dueDate"`
	TaxRate       *decimalInput        `json:"taxRate"`
	Currency      *string              `json:"currency"`
	Notes         *string              `json:"notes"`
	Items         []invoiceItemRequest `json:"items"`
}

func (req invoicePatchRequest) toInput() validation.InvoicePatchInput {
	return validation.InvoicePatchInput{
		InvoiceNumber: req.InvoiceNumber,
		IssueDate:     req.IssueDate,
		DueDate:       req.DueDate,
		TaxRate:       req.TaxRate.stringPtr(),
		Currency:      req.Currency,
		Notes:         req.Notes,
		Items:         toItemInputs(req.Items),
	}
}

type markPaidRequest struct {
	PaidDate *string `json:"paidDate"`
}

type clientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type projectRequest struct {
	ClientID   int64         `json:"clientId"`
	Name       string        `json:"name"`
	HourlyRate *decimalInput `json:"hourlyRate"`
}

type taskRequest struct {
	Name string `json:"name"`
}

type timeEntryResponse struct {
	ID              int64      `json:"id"`
	ProjectID       int64      `json:"projectId"`
	TaskID          *int64     `json:"taskId"`
	Date            string     `json:"date"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime"`
	DurationMinutes *int       `json:"durationMinutes"`
	Description     string     `json:"description"`
	IsBillable      bool       `json:"isBillable"`
	IsBilled        bool       `json:"isBilled"`
	InvoiceID       *int64     `json:"invoiceId"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func newTimeEntryResponse(e *domain.TimeEntry) timeEntryResponse {
	return timeEntryResponse{
		ID:              e.ID,
		ProjectID:       e.ProjectID,
		TaskID:          e.TaskID,
		Date:            e.Date(),
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

func newTimeEntryResponses(entries []*domain.TimeEntry) []timeEntryResponse {
	result := make([]timeEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = newTimeEntryResponse(e)
	}
	return result
}

type invoiceItemResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Total       string `json:"total"`
}

// Money is rendered as decimal strings to keep exact precision in transit.
type invoiceResponse struct {
	ID            int64                 `json:"id"`
	ClientID      int64                 `json:"clientId"`
	ProjectID     *int64                `json:"projectId"`
	InvoiceNumber string                `json:"invoiceNumber"`
	IssueDate     string                `json:"issueDate"`
	DueDate       string                `json:"dueDate"`
	Status        string                `json:"status"`
	Subtotal      string                `json:"subtotal"`
	TaxRate       string                `json:"taxRate"`
	TaxAmount     string                `json:"taxAmount"`
	Discount      string                `json:"discount"`
	TotalAmount   string                `json:"totalAmount"`
	Currency      string                `json:"currency"`
	Notes         string                `json:"notes"`
	PaidDate      *string               `json:"paidDate"`
	Items         []invoiceItemResponse `json:"items"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

func newInvoiceResponse(inv *domain.Invoice) invoiceResponse {
	items := make([]invoiceItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = invoiceItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    domain.FormatDecimal(item.Quantity),
			UnitPrice:   domain.FormatDecimal(item.UnitPrice),
			Total:       domain.FormatDecimal(item.Total),
		}
	}

	var paid *string
	if inv.PaidDate != nil {
		s := inv.PaidDate.Format(dateLayout)
		paid = &s
	}

	return invoiceResponse{
		ID:            inv.ID,
		ClientID:      inv.ClientID,
		ProjectID:     inv.ProjectID,
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     inv.IssueDate.Format(dateLayout),
		DueDate:       inv.DueDate.Format(dateLayout),
		Status:        string(inv.Status),
		Subtotal:      domain.FormatDecimal(inv.Subtotal),
		TaxRate:       domain.FormatDecimal(inv.TaxRate),
		TaxAmount:     domain.FormatDecimal(inv.TaxAmount),
		Discount:      domain.FormatDecimal(inv.Discount),
		TotalAmount:   domain.FormatDecimal(inv.TotalAmount),
		Currency:      inv.Currency,
		Notes:         inv.Notes,
		PaidDate:      paid,
		Items:         items,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

func newInvoiceResponses(invoices []*domain.Invoice) []invoiceResponse {
	result := make([]invoiceResponse, len(invoices))
	for i, inv := range invoices {
		result[i] = newInvoiceResponse(inv)
	}
	return result
}

type clientResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newClientResponse(c *domain.Client) clientResponse {
	return clientResponse{ID: c.ID, Name: c.Name, Email: c.Email, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

type projectResponse struct {
	ID         int64     `json:"id"`
	ClientID   int64     `json:"clientId"`
	Name       string    `json:"name"`
	HourlyRate *string   `json:"hourlyRate"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newProjectResponse(p *domain.Project) projectResponse {
	var rate *string
	if p.HourlyRate != nil {
		s := domain.FormatDecimal(*p.HourlyRate)
		rate = &s
	}
	return projectResponse{ID: p.ID, ClientID: p.ClientID, Name: p.Name, HourlyRate: rate, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}

type taskResponse struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"projectId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func newTaskResponse(t *domain.Task) taskResponse {
	return taskResponse{ID: t.ID, ProjectID: t.ProjectID, Name: t.Name, CreatedAt: t.CreatedAt}
}

type projectActivityResponse struct {
	ProjectID       int64   `json:"projectId"`
	ProjectName     string  `json:"projectName"`
	EntryCount      int     `json:"entryCount"`
	TotalMinutes    int     `json:"totalMinutes"`
	BillableMinutes int     `json:"billableMinutes"`
	UnbilledMinutes int     `json:"unbilledMinutes"`
	UnbilledAmount  *string `json:"unbilledAmount"`
	Running         bool    `json:"running"`
}

type summaryResponse struct {
	From            *time.Time                `json:"from"`
	To              *time.Time                `json:"to"`
	TotalMinutes    int                       `json:"totalMinutes"`
	BillableMinutes int                       `json:"billableMinutes"`
	UnbilledMinutes int                       `json:"unbilledMinutes"`
	Projects        []projectActivityResponse `json:"projects"`
}

func newSummaryResponse(s *services.WorkSummary) summaryResponse {
	projects := make([]projectActivityResponse, len(s.Projects))
	for i, p := range s.Projects {
		var amount *string
		if p.UnbilledAmount != nil {
			text := domain.FormatDecimal(*p.UnbilledAmount)
			amount = &text
		}
		projects[i] = projectActivityResponse{
			ProjectID:       p.ProjectID,
			ProjectName:     p.ProjectName,
			EntryCount:      p.EntryCount,
			TotalMinutes:    p.TotalMinutes,
			BillableMinutes: p.BillableMinutes,
			UnbilledMinutes: p.UnbilledMinutes,
			UnbilledAmount:  amount,
			Running:         p.Running,
		}
	}
	return summaryResponse{
		From:            s.From,
		To:              s.To,
		TotalMinutes:    s.TotalMinutes,
		BillableMinutes: s.BillableMinutes,
		UnbilledMinutes: s.UnbilledMinutes,
		Projects:        projects,
	}
}
