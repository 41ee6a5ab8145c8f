package services

import (
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freelancer/internal/domain"
	"freelancer/internal/errors"
	"freelancer/internal/validation"
)

func invoiceInput(acc account, number string) validation.InvoiceInput {
	return validation.InvoiceInput{
		ClientID:      acc.client.ID,
		InvoiceNumber: number,
		IssueDate:     "2024-03-01",
		DueDate:       "2024-03-31",
		Items: []validation.InvoiceItemInput{
			{Description: "Design", Quantity: "2", UnitPrice: "50"},
			{Description: "Build", Quantity: "1", UnitPrice: "100"},
		},
	}
}

func assertAmount(t *testing.T, expected string, actual apd.Decimal) {
	t.Helper()
	want := domain.MustDecimal(expected)
	assert.Zero(t, want.Cmp(&actual), "expected %s, got %s", expected, domain.FormatDecimal(actual))
}

func TestInvoiceService_CreateComputesTotals(t *testing.T) {
	env := setupServices(t)
	acc := env.seedAccount(t, "invoice@example.com")

	in := invoiceInput(acc, "INV-001")
	in.TaxRate = stringPtr("0.0825")
	invoice, err := env.services.Invoices.Create(env.ctx, acc.user.ID, in)
	require.NoError(t, err)

	assert.Equal(t, domain.InvoiceDraft, invoice.Status)
	assert.Equal(t, "USD", invoice.Currency)
	assertAmount(t, "200", invoice.Subtotal)
	assertAmount(t, "16.50", invoice.TaxAmount)
	assertAmount(t, "0", invoice.Discount)
	assertAmount(t, "216.50", invoice.TotalAmount)
	require.Len(t, invoice.Items, 2)
	assertAmount(t, "100", invoice.Items[0].Total)

	fetched, err := env.services.Invoices.Get(env.ctx, acc.user.ID, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.InvoiceNumber, fetched.InvoiceNumber)
	assertAmount(t, "216.50", fetched.TotalAmount)
	require.Len(t, fetched.Items, 2)
	assert.Equal(t, "Design", fetched.Items[0].Description)
}

func TestInvoiceService_CreateRejectsDuplicateNumber(t *testing.T) {
	env := setupServices(t)
	acc := env.seedAccount(t, "dup@example.com")
	other := env.seedAccount(t, "dup-other@example.com")

	_, err := env.services.Invoices.Create(env.ctx, acc.user.ID, invoiceInput(acc, "INV-001"))
	require.NoError(t, err)

	_, err = env.services.Invoices.Create(env.ctx, acc.user.ID, invoiceInput(acc, "INV-001"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeConflict))
	assert.Equal(t, "DUPLICATE", errors.GetErrorCode(err))

	// Numbers are unique per user only.
	_, err = env.services.Invoices.Create(env.ctx, other.user.ID, invoiceInput(other, "INV-001"))
	assert.NoError(t, err)
}

func TestInvoiceService_CreateChecksOwnership(t *testing.T) {
	env := setupServices(t)
	acc := env.seedAccount(t, "owns@example.com")
	other := env.seedAccount(t, "foreign@example.com")

	_, err := env.services.Invoices.Create(env.ctx, acc.user.ID, invoiceInput(other, "INV-001"))
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	in := invoiceInput(acc, "INV-002")
	in.ProjectID = &other.project.ID
	_, err = env.services.Invoices.Create(env.ctx, acc.user.ID, in)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestInvoiceService_CreateBillsTimeEntries(t *testing.T) {
	env := setupServices(t)
	acc := env.seedAccount(t, "bills@example.com")
	entry := env.logEntry(t, acc, testEpoch.Add(-3*time.Hour), 2*time.Hour)

	in := invoiceInput(acc, "INV-001")
	in.TimeEntryIDs = []int64{entry.ID, entry.ID}
	invoice, err := env.services.Invoices.Create(env.ctx, acc.user.ID, in)
	require.NoError(t, err)

	billed, err := env.services.TimeEntries.Get(env.ctx, acc.user.ID, entry.ID)
	require.NoError(t, err)
	assert.True(t, billed.IsBilled)
	require.NotNil(t, billed.InvoiceID)
	assert.Equal(t, invoice.ID, *billed.InvoiceID)

	_, err = env.services.TimeEntries.Update(env.ctx, acc.user.ID, entry.ID, TimeEntryUpdate{
		Patch: domain.TimeEntryPatch{Description: stringPtr("sneaky")},
	})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidState))

	err = env.services.TimeEntries.Delete(env.ctx, acc.user.ID, entry.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidState))

	// An entry can be billed only once.
	again := invoiceInput(acc, "INV-002")
	again.TimeEntryIDs = []int64{entry.ID}
	_, err = env.services.Invoices.Create(env.ctx, acc.user.ID, again)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidState))
}

func TestInvoiceService_CreateRejectsUnbillableEntries(t *testing.T) {
	env := setupServices(t)
	acc := env.seedAccount(t, "unbillable@example.com")

	running, err := env.services.Timer.Start(env.ctx, acc.user.ID, acc.project.ID, nil, "")
	require.NoError(t, err)

	start := testEpoch.Add(-5 * time.Hour)
	end := start.Add(time.Hour)
	internal, err := env.services.TimeEntries.Create(env.ctx, acc.user.ID, validation.TimeEntryInput{
		ProjectID:  acc.project.ID,
		StartTime:  &start,
		EndTime:    &end,
		IsBillable: boolPtr(false),
	})
	require.NoError(t, err)
	valid := env.logEntry(t, acc, testEpoch.Add(-3*time.Hour), time.Hour)

	for _, id := range []int64{running.ID, internal.ID} {
		in := invoiceInput(acc, "INV-001")
		in.TimeEntryIDs = []int64{valid.ID, id}
		_, err := env.services.Invoices.Create(env.ctx, acc.user.ID, in)
		assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidState))
	}

	// Nothing was committed by the failed attempts.
	unbilled, err := env.services.TimeEntries.Get(env.ctx, acc.user.ID, valid.ID)
	require.NoError(t, err)
	assert.False(t, unbilled.IsBilled)
	invoices, err := env.services.Invoices.List(env.ctx, acc.user.ID, domain.InvoiceSearch{})
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestInvoiceService_UpdateDraft(t *testing.T) {
	env := setupServices(t)
	acc := env.seedAccount(t, "update@example.com")

	invoice, err := env.services.Invoices.Create(env.ctx, acc.user.ID, invoiceInput(acc, "INV-001"))
	require.NoError(t, err)

	updated, err := env.services.Invoices.Update(env.ctx, acc.user.ID, invoice.ID, validation.InvoicePatchInput{
		TaxRate: stringPtr("0.1"),
		Items:   []validation.InvoiceItemInput{{Description: "Retainer", Quantity: "1.5", UnitPrice: "200"}},
	})
	require.NoError(t, err)
	assertAmount(t, "300", updated.Subtotal)
	assertAmount(t, "30.00", updated.TaxAmount)
	assertAmount(t, "330.00", updated.TotalAmount)
	require.Len(t, updated.Items, 1)

	fetched, err := env.services.Invoices.Get(env.ctx, acc.user.ID, invoice.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, "Retainer", fetched.Items[0].Description)
	assert.Equal(t, "INV-001", fetched.InvoiceNumber)

	_, err = env.services.Invoices.Update(env.ctx, acc.user.ID, invoice.ID, validation.InvoicePatchInput{
		DueDate: stringPtr("2024-02-01"),
	})
	assert.True(t, validation.IsValidationError(err))
}

func TestInvoiceService_UpdateKeepsItemsUnlessReplaced(t *testing.T) {
	env := setupServices(t)
	acc := env.seedAccount(t, "items@example.com")

	invoice, err := env.services.Invoices.Create(env.ctx, acc.user.ID, invoiceInput(acc, "INV-001"))
	require.NoError(t, err)
	require.Len(t, invoice.Items, 2)
	itemIDs := []int64{invoice.Items[0].ID, invoice.Items[1].ID}

	updated, err := env.services.Invoices.Update(env.ctx, acc.user.ID, invoice.ID, validation.InvoicePatchInput{Notes: stringPtr("net 30")})
	require.NoError(t, err)
	assert.Equal(t, "net 30", updated.Notes)

	fetched, err := env.services.Invoices.Get(env.ctx, acc.user.ID, invoice.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Items, 2)
	assert.Equal(t, itemIDs, []int64{fetched.Items[0].ID, fetched.Items[1].ID})
	assertAmount(t, "200", fetched.Subtotal)

	_, err = env.services.Invoices.Update(env.ctx, acc.user.ID, invoice.ID, validation.InvoicePatchInput{
		Items: []validation.InvoiceItemInput{{Description: "Retainer", Quantity: "1", UnitPrice: "50"}},
	})
	require.NoError(t, err)

	fetched, err = env.services.Invoices.Get(env.ctx, acc.user.ID, invoice.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Items, 1)
	assert.NotContains(t, itemIDs, fetched.Items[0].ID)
}

func TestInvoiceService_UpdateRejectsTakenNumber(t *testing.T) {
	env := setupServices(t)
	acc := env.seedAccount(t, "rename@example.com")

	_, err := env.services.Invoices.Create(env.ctx, acc.user.ID, invoiceInput(acc, "INV-001"))
	require.NoError(t, err)
	second, err := env.services.Invoices.Create(env.ctx, acc.user.ID, invoiceInput(acc, "INV-002"))
	require.NoError(t, err)

	_, err = env.services.Invoices.Update(env.ctx, acc.user.ID, second.ID, validation.InvoicePatchInput{InvoiceNumber: stringPtr("INV-001")})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeConflict))

	renamed, err := env.services.Invoices.Update(env.ctx, acc.user.ID, second.ID, validation.InvoicePatchInput{InvoiceNumber: stringPtr("INV-002")})
	require.NoError(t, err)
	assert.Equal(t, "INV-002", renamed.InvoiceNumber)
}

func TestInvoiceService_SentInvoiceIsFrozen(t *testing.T) {
	env := setupServices(t)
	acc := env.seedAccount(t, "frozen@example.com")

	invoice, err := env.services.Invoices.Create(env.ctx, acc.user.ID, invoiceInput(acc, "INV-001"))
	require.NoError(t, err)

	sent, err := env.services.Invoices.Send(env.ctx, acc.user.ID, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceSent, sent.Status)

	_, err = env.services.Invoices.Update(env.ctx, acc.user.ID, invoice.ID, validation.InvoicePatchInput{Notes: stringPtr("changed")})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidState))

	err = env.services.Invoices.Delete(env.ctx, acc.user.ID, invoice.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidState))

	_, err = env.services.Invoices.Send(env.ctx, acc.user.ID, invoice.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidState))

	fetched, err := env.services.Invoices.Get(env.ctx, acc.user.ID, invoice.ID)
	require.NoError(t, err)
	assertAmount(t, "200", fetched.TotalAmount)
	assert.Equal(t, invoice.Items[0].ID, fetched.Items[0].ID)
}

func TestInvoiceService_MarkPaidIsIdempotent(t *testing.T) {
	env := setupServices(t)
	acc := env.seedAccount(t, "paid@example.com")

	invoice, err := env.services.Invoices.Create(env.ctx, acc.user.ID, invoiceInput(acc, "INV-001"))
	require.NoError(t, err)
	_, err = env.services.Invoices.Send(env.ctx, acc.user.ID, invoice.ID)
	require.NoError(t, err)

	paid, err := env.services.Invoices.MarkPaid(env.ctx, acc.user.ID, invoice.ID, stringPtr("2024-03-20"))
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, "2024-03-20", paid.PaidDate.Format("2006-01-02"))

	env.clock.Advance(time.Hour)
	again, err := env.services.Invoices.MarkPaid(env.ctx, acc.user.ID, invoice.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePaid, again.Status)
	assert.True(t, paid.PaidDate.Equal(*again.PaidDate))
	assert.True(t, paid.UpdatedAt.Equal(again.UpdatedAt))

	_, err = env.services.Invoices.Cancel(env.ctx, acc.user.ID, invoice.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidState))
}

func TestInvoiceService_CancelledCannotBePaid(t *testing.T) {
	env := setupServices(t)
	acc := env.seedAccount(t, "cancel@example.com")

	invoice, err := env.services.Invoices.Create(env.ctx, acc.user.ID, invoiceInput(acc, "INV-001"))
	require.NoError(t, err)

	cancelled, err := env.services.Invoices.Cancel(env.ctx, acc.user.ID, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceCancelled, cancelled.Status)

	_, err = env.services.Invoices.MarkPaid(env.ctx, acc.user.ID, invoice.ID, nil)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidState))
}

func TestInvoiceService_SweepOverdueCoversEveryUser(t *testing.T) {
	env := setupServices(t)
	first := env.seedAccount(t, "first@example.com")
	second := env.seedAccount(t, "second@example.com")

	for _, acc := range []account{first, second} {
		invoice, err := env.services.Invoices.Create(env.ctx, acc.user.ID, invoiceInput(acc, "INV-001"))
		require.NoError(t, err)
		_, err = env.services.Invoices.Send(env.ctx, acc.user.ID, invoice.ID)
		require.NoError(t, err)
	}
	env.clock.Advance(30 * 24 * time.Hour)

	marked, err := env.services.Invoices.MarkOverdue(env.ctx, first.user.ID)
	require.NoError(t, err)
	require.Len(t, marked, 1)
	assert.Equal(t, first.user.ID, marked[0].UserID)

	marked, err = env.services.Invoices.SweepOverdue(env.ctx)
	require.NoError(t, err)
	require.Len(t, marked, 1)
	assert.Equal(t, second.user.ID, marked[0].UserID)
	assert.Equal(t, domain.InvoiceOverdue, marked[0].Status)

	marked, err = env.services.Invoices.SweepOverdue(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, marked)
}

func TestInvoiceService_MarkOverdue(t *testing.T) {
	env := setupServices(t)
	acc := env.seedAccount(t, "overdue@example.com")

	late, err := env.services.Invoices.Create(env.ctx, acc.user.ID, invoiceInput(acc, "INV-001"))
	require.NoError(t, err)
	_, err = env.services.Invoices.Send(env.ctx, acc.user.ID, late.ID)
	require.NoError(t, err)

	notSent, err := env.services.Invoices.Create(env.ctx, acc.user.ID, invoiceInput(acc, "INV-002"))
	require.NoError(t, err)

	future := invoiceInput(acc, "INV-003")
	future.DueDate = "2024-06-30"
	onTime, err := env.services.Invoices.Create(env.ctx, acc.user.ID, future)
	require.NoError(t, err)
	_, err = env.services.Invoices.Send(env.ctx, acc.user.ID, onTime.ID)
	require.NoError(t, err)

	env.clock.Advance(30 * 24 * time.Hour)
	marked, err := env.services.Invoices.MarkOverdue(env.ctx, acc.user.ID)
	require.NoError(t, err)
	require.Len(t, marked, 1)
	assert.Equal(t, late.ID, marked[0].ID)
	assert.Equal(t, domain.InvoiceOverdue, marked[0].Status)

	overdue := domain.InvoiceOverdue
	listed, err := env.services.Invoices.List(env.ctx, acc.user.ID, domain.InvoiceSearch{Status: &overdue})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, late.ID, listed[0].ID)

	draft, err := env.services.Invoices.Get(env.ctx, acc.user.ID, notSent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceDraft, draft.Status)

	// Overdue invoices can still be paid.
	paid, err := env.services.Invoices.MarkPaid(env.ctx, acc.user.ID, late.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePaid, paid.Status)
}

func TestInvoiceService_DeleteReleasesEntries(t *testing.T) {
	env := setupServices(t)
	acc := env.seedAccount(t, "release@example.com")
	entry := env.logEntry(t, acc, testEpoch.Add(-3*time.Hour), time.Hour)

	in := invoiceInput(acc, "INV-001")
	in.TimeEntryIDs = []int64{entry.ID}
	invoice, err := env.services.Invoices.Create(env.ctx, acc.user.ID, in)
	require.NoError(t, err)

	require.NoError(t, env.services.Invoices.Delete(env.ctx, acc.user.ID, invoice.ID))

	_, err = env.services.Invoices.Get(env.ctx, acc.user.ID, invoice.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	released, err := env.services.TimeEntries.Get(env.ctx, acc.user.ID, entry.ID)
	require.NoError(t, err)
	assert.False(t, released.IsBilled)
	assert.Nil(t, released.InvoiceID)

	// The released entry can be billed again.
	_, err = env.services.Invoices.Create(env.ctx, acc.user.ID, in)
	assert.NoError(t, err)
}

func TestInvoiceService_OwnershipIsolation(t *testing.T) {
	env := setupServices(t)
	owner := env.seedAccount(t, "inv-owner@example.com")
	intruder := env.seedAccount(t, "inv-intruder@example.com")

	invoice, err := env.services.Invoices.Create(env.ctx, owner.user.ID, invoiceInput(owner, "INV-001"))
	require.NoError(t, err)

	_, err = env.services.Invoices.Get(env.ctx, intruder.user.ID, invoice.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
	_, err = env.services.Invoices.Send(env.ctx, intruder.user.ID, invoice.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
	err = env.services.Invoices.Delete(env.ctx, intruder.user.ID, invoice.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	listed, err := env.services.Invoices.List(env.ctx, intruder.user.ID, domain.InvoiceSearch{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	entry := env.logEntry(t, owner, testEpoch.Add(-3*time.Hour), time.Hour)
	in := invoiceInput(intruder, "INV-001")
	in.TimeEntryIDs = []int64{entry.ID}
	_, err = env.services.Invoices.Create(env.ctx, intruder.user.ID, in)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestInvoiceService_ListRejectsUnknownStatus(t *testing.T) {
	env := setupServices(t)
	acc := env.seedAccount(t, "status@example.com")

	status := domain.InvoiceStatus("archived")
	_, err := env.services.Invoices.List(env.ctx, acc.user.ID, domain.InvoiceSearch{Status: &status})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidInput))
}
