package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freelancer/internal/domain"
	"freelancer/internal/validation"
)

func TestSweepCommand(t *testing.T) {
	app := setupTestApp(t)
	require.NoError(t, NewStartCommand(app.App).Execute(app.ctx, app.projectID, nil, "forgotten"))

	invoice, err := app.services.Invoices.Create(app.ctx, app.userID(), validation.InvoiceInput{
		ClientID:      1,
		InvoiceNumber: "INV-001",
		IssueDate:     "2024-02-01",
		DueDate:       "2024-03-01",
		Items:         []validation.InvoiceItemInput{{Description: "February", Quantity: "10", UnitPrice: "100"}},
	})
	require.NoError(t, err)
	_, err = app.services.Invoices.Send(app.ctx, app.userID(), invoice.ID)
	require.NoError(t, err)

	other, err := app.services.Clients.CreateUser(app.ctx, "other@example.com", "Other")
	require.NoError(t, err)
	otherClient, err := app.services.Clients.CreateClient(app.ctx, other.ID, validation.ClientInput{Name: "Initech"})
	require.NoError(t, err)
	otherInvoice, err := app.services.Invoices.Create(app.ctx, other.ID, validation.InvoiceInput{
		ClientID:      otherClient.ID,
		InvoiceNumber: "2024-07",
		IssueDate:     "2024-02-01",
		DueDate:       "2024-02-15",
		Items:         []validation.InvoiceItemInput{{Description: "Audit", Quantity: "1", UnitPrice: "500"}},
	})
	require.NoError(t, err)
	_, err = app.services.Invoices.Send(app.ctx, other.ID, otherInvoice.ID)
	require.NoError(t, err)
	app.output()

	app.clock.Advance(30 * time.Hour)
	require.NoError(t, NewSweepCommand(app.App).Execute(app.ctx))
	assert.Equal(t, "Closed 1 abandoned timer(s), marked 2 invoice(s) overdue\n", app.output())

	entry, err := app.services.TimeEntries.Get(app.ctx, app.userID(), 1)
	require.NoError(t, err)
	require.NotNil(t, entry.EndTime)
	assert.Equal(t, entry.StartTime.Add(24*time.Hour), *entry.EndTime)
	assert.Equal(t, 24*60, *entry.DurationMinutes)

	overdue, err := app.services.Invoices.Get(app.ctx, app.userID(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceOverdue, overdue.Status)

	otherOverdue, err := app.services.Invoices.Get(app.ctx, other.ID, otherInvoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceOverdue, otherOverdue.Status)
}

func TestSweepCommand_NothingToDo(t *testing.T) {
	app := setupTestApp(t)
	require.NoError(t, NewStartCommand(app.App).Execute(app.ctx, app.projectID, nil, ""))
	app.output()

	app.clock.Advance(time.Hour)
	require.NoError(t, NewSweepCommand(app.App).Execute(app.ctx))
	assert.Equal(t, "Closed 0 abandoned timer(s), marked 0 invoice(s) overdue\n", app.output())

	state, err := app.timers.Load(app.clock.Now())
	require.NoError(t, err)
	assert.NotNil(t, state)
}
