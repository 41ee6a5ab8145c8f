package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freelancer/internal/errors"
)

func draftInvoice(t *testing.T) Invoice {
	t.Helper()
	issue := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	inv, err := NewDraftInvoice(1, 2, nil, "INV-001", issue, issue.AddDate(0, 0, 30), "USD", Zero(),
		[]InvoiceItem{
			{Description: "Design", Quantity: MustDecimal("2"), UnitPrice: MustDecimal("50")},
			{Description: "Build", Quantity: MustDecimal("1"), UnitPrice: MustDecimal("100")},
		})
	require.NoError(t, err)
	return inv
}

func TestNewDraftInvoice(t *testing.T) {
	inv := draftInvoice(t)

	assert.Equal(t, InvoiceDraft, inv.Status)
	assertDecimal(t, "200", &inv.Subtotal)
	assertDecimal(t, "200", &inv.TotalAmount)
	require.Len(t, inv.Items, 2)
	assertDecimal(t, "100", &inv.Items[0].Total)
	assertDecimal(t, "100", &inv.Items[1].Total)
	assert.True(t, inv.IsEditable())
	assert.True(t, inv.IsDeletable())
}

func TestInvoiceStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to InvoiceStatus
		allowed  bool
	}{
		{InvoiceDraft, InvoiceSent, true},
		{InvoiceDraft, InvoicePaid, true},
		{InvoiceDraft, InvoiceCancelled, true},
		{InvoiceDraft, InvoiceOverdue, false},
		{InvoiceSent, InvoicePaid, true},
		{InvoiceSent, InvoiceOverdue, true},
		{InvoiceSent, InvoiceDraft, false},
		{InvoiceOverdue, InvoicePaid, true},
		{InvoiceOverdue, InvoiceCancelled, true},
		{InvoicePaid, InvoiceCancelled, false},
		{InvoicePaid, InvoiceSent, false},
		{InvoiceCancelled, InvoicePaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, InvoiceOverdue.IsValid())
	assert.False(t, InvoiceStatus("void").IsValid())
}

func TestInvoice_ApplyDraftOnly(t *testing.T) {
	inv := draftInvoice(t)
	now := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	rate := MustDecimal("0.1")
	updated, err := inv.Apply(InvoicePatch{
		TaxRate: &rate,
		Items:   []InvoiceItem{{Description: "Retainer", Quantity: MustDecimal("1"), UnitPrice: MustDecimal("300")}},
	}, now)
	require.NoError(t, err)
	assertDecimal(t, "300", &updated.Subtotal)
	assertDecimal(t, "30.00", &updated.TaxAmount)
	assertDecimal(t, "330.00", &updated.TotalAmount)
	assert.Len(t, updated.Items, 1)
	assert.Equal(t, now, updated.UpdatedAt)

	// Original value unchanged.
	assertDecimal(t, "200", &inv.Subtotal)
	assert.Len(t, inv.Items, 2)

	sent, err := inv.Send(now)
	require.NoError(t, err)
	_, err = sent.Apply(InvoicePatch{TaxRate: &rate}, now)
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidState))
	assertDecimal(t, "200", &sent.Subtotal)
	assert.Len(t, sent.Items, 2)
}

func TestInvoice_MarkPaid(t *testing.T) {
	inv := draftInvoice(t)
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	paidAt := time.Date(2024, 5, 9, 12, 0, 0, 0, time.UTC)

	sent, err := inv.Send(now)
	require.NoError(t, err)

	paid, changed, err := sent.MarkPaid(paidAt, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, InvoicePaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, paidAt, *paid.PaidDate)

	again, changed, err := paid.MarkPaid(paidAt.Add(time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, paidAt, *again.PaidDate)

	_, err = paid.Cancel(now)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidState))
}

func TestInvoice_CancelledCannotBePaid(t *testing.T) {
	inv := draftInvoice(t)
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	cancelled, err := inv.Cancel(now)
	require.NoError(t, err)
	assert.True(t, cancelled.IsDeletable())

	_, _, err = cancelled.MarkPaid(now, now)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidState))
}

func TestInvoice_MarkOverdue(t *testing.T) {
	inv := draftInvoice(t)
	beforeDue := inv.DueDate.Add(-time.Hour)
	afterDue := inv.DueDate.Add(time.Hour)

	_, err := inv.MarkOverdue(afterDue)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidState), "draft cannot become overdue")

	sent, err := inv.Send(beforeDue)
	require.NoError(t, err)
	assert.False(t, sent.IsOverdue(beforeDue))
	assert.True(t, sent.IsOverdue(afterDue))
	assert.False(t, sent.IsDeletable())

	overdue, err := sent.MarkOverdue(afterDue)
	require.NoError(t, err)
	assert.Equal(t, InvoiceOverdue, overdue.Status)
}
