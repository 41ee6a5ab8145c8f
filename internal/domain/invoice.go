package domain

import (
	"time"

	"github.com/cockroachdb/apd/v3"

	"freelancer/internal/errors"
)

// InvoiceStatus is the lifecycle position of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// invoiceTransitions lists the statuses reachable from each status.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:   {InvoiceSent, InvoicePaid, InvoiceCancelled},
	InvoiceSent:    {InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceOverdue: {InvoicePaid, InvoiceCancelled},
}

// IsValid reports whether s is a known status.
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an invoice may move from s to next.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InvoiceItem is one line of an invoice. Total is always Quantity × UnitPrice.
type InvoiceItem struct {
	ID          int64
	InvoiceID   int64
	Description string
	Quantity    apd.Decimal
	UnitPrice   apd.Decimal
	Total       apd.Decimal
}

// NewInvoiceItem builds an item with its line total computed.
func NewInvoiceItem(description string, quantity, unitPrice apd.Decimal) (InvoiceItem, error) {
	total, err := LineTotal(quantity, unitPrice)
	if err != nil {
		return InvoiceItem{}, err
	}
	return InvoiceItem{
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Total:       total,
	}, nil
}

// Invoice is a bill sent to a client. Financial fields are frozen once it leaves draft.
type Invoice struct {
	ID            int64
	UserID        int64
	ClientID      int64
	ProjectID     *int64
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       time.Time
	Status        InvoiceStatus
	Subtotal      apd.Decimal
	TaxRate       apd.Decimal
	TaxAmount     apd.Decimal
	Discount      apd.Decimal
	TotalAmount   apd.Decimal
	Currency      string
	Notes         string
	PaidDate      *time.Time
	Items         []InvoiceItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InvoicePatch holds the draft-only edits. Nil fields are left alone; a
// non-nil Items replaces every line and recomputes totals.
type InvoicePatch struct {
	InvoiceNumber *string
	IssueDate     *time.Time
	DueDate       *time.Time
	TaxRate       *apd.Decimal
	Currency      *string
	Notes         *string
	Items         []InvoiceItem
}

// NewDraftInvoice assembles a draft invoice with totals derived from items.
func NewDraftInvoice(userID, clientID int64, projectID *int64, number string, issue, due time.Time,
	currency string, taxRate apd.Decimal, items []InvoiceItem) (Invoice, error) {
	inv := Invoice{
		UserID:        userID,
		ClientID:      clientID,
		ProjectID:     projectID,
		InvoiceNumber: number,
		IssueDate:     issue,
		DueDate:       due,
		Status:        InvoiceDraft,
		TaxRate:       taxRate,
		Currency:      currency,
	}
	return inv.withItems(items)
}

func (inv Invoice) withItems(items []InvoiceItem) (Invoice, error) {
	lines := make([]InvoiceItem, len(items))
	for i, item := range items {
		line, err := NewInvoiceItem(item.Description, item.Quantity, item.UnitPrice)
		if err != nil {
			return inv, err
		}
		line.ID = item.ID
		line.InvoiceID = inv.ID
		lines[i] = line
	}
	totals, err := ComputeTotals(lines, inv.TaxRate)
	if err != nil {
		return inv, err
	}
	inv.Items = lines
	inv.Subtotal = totals.Subtotal
	inv.TaxAmount = totals.TaxAmount
	inv.Discount = totals.Discount
	inv.TotalAmount = totals.Total
	return inv, nil
}

// IsEditable reports whether financial fields may still change.
func (inv Invoice) IsEditable() bool {
	return inv.Status == InvoiceDraft
}

// IsDeletable reports whether the invoice may be removed.
func (inv Invoice) IsDeletable() bool {
	return inv.Status == InvoiceDraft || inv.Status == InvoiceCancelled
}

// Apply returns a copy of the draft with the patch applied and totals recomputed.
func (inv Invoice) Apply(p InvoicePatch, now time.Time) (Invoice, error) {
	if !inv.IsEditable() {
		return inv, errors.NewInvalidStateError("invoice", string(inv.Status), "only draft invoices can be edited")
	}
	if p.InvoiceNumber != nil {
		inv.InvoiceNumber = *p.InvoiceNumber
	}
	if p.IssueDate != nil {
		inv.IssueDate = *p.IssueDate
	}
	if p.DueDate != nil {
		inv.DueDate = *p.DueDate
	}
	if p.TaxRate != nil {
		inv.TaxRate = *p.TaxRate
	}
	if p.Currency != nil {
		inv.Currency = *p.Currency
	}
	if p.Notes != nil {
		inv.Notes = *p.Notes
	}
	items := inv.Items
	if p.Items != nil {
		items = p.Items
	}
	updated, err := inv.withItems(items)
	if err != nil {
		return inv, err
	}
	updated.UpdatedAt = now
	return updated, nil
}

func (inv Invoice) transition(next InvoiceStatus, now time.Time) (Invoice, error) {
	if !inv.Status.CanTransitionTo(next) {
		return inv, errors.NewInvalidStateError("invoice", string(inv.Status),
			"cannot move invoice from "+string(inv.Status)+" to "+string(next))
	}
	inv.Status = next
	inv.UpdatedAt = now
	return inv, nil
}

// Send moves a draft to sent.
func (inv Invoice) Send(now time.Time) (Invoice, error) {
	return inv.transition(InvoiceSent, now)
}

// MarkPaid stamps paidAt and moves the invoice to paid. An already paid
// invoice is returned unchanged with changed == false.
func (inv Invoice) MarkPaid(paidAt, now time.Time) (updated Invoice, changed bool, err error) {
	if inv.Status == InvoicePaid {
		return inv, false, nil
	}
	updated, err = inv.transition(InvoicePaid, now)
	if err != nil {
		return inv, false, err
	}
	updated.PaidDate = &paidAt
	return updated, true, nil
}

// Cancel moves a draft, sent or overdue invoice to cancelled.
func (inv Invoice) Cancel(now time.Time) (Invoice, error) {
	return inv.transition(InvoiceCancelled, now)
}

// IsOverdue reports whether a sent invoice is past its due date at now.
func (inv Invoice) IsOverdue(now time.Time) bool {
	return inv.Status == InvoiceSent && now.After(inv.DueDate)
}

// MarkOverdue moves a sent invoice past its due date to overdue.
func (inv Invoice) MarkOverdue(now time.Time) (Invoice, error) {
	if !inv.IsOverdue(now) {
		return inv, errors.NewInvalidStateError("invoice", string(inv.Status), "invoice is not past due")
	}
	return inv.transition(InvoiceOverdue, now)
}
