package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freelancer/internal/config"
	"freelancer/internal/domain"
)

func validInvoiceInput() InvoiceInput {
	return InvoiceInput{
		ClientID:      1,
		InvoiceNumber: " INV-001 ",
		IssueDate:     "2024-03-01",
		DueDate:       "2024-03-31",
		Items: []InvoiceItemInput{
			{Description: "Design", Quantity: "2", UnitPrice: "50"},
			{Description: "Build", Quantity: "1", UnitPrice: "100"},
		},
	}
}

func TestInvoiceValidator_ValidateInvoiceForCreation(t *testing.T) {
	validator := NewInvoiceValidator(nil)

	out, err := validator.ValidateInvoiceForCreation(validInvoiceInput())
	require.NoError(t, err)

	assert.Equal(t, "INV-001", out.InvoiceNumber)
	assert.Equal(t, "USD", out.Currency)
	assert.Equal(t, "0", out.TaxRate.Text('f'))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), out.IssueDate)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "100", out.Items[0].Total.Text('f'))
	assert.Equal(t, "100", out.Items[1].Total.Text('f'))
}

func TestInvoiceValidator_ConfiguredDefaults(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Invoice.TaxRate = "0.19"
	cfg.Invoice.DefaultCurrency = "EUR"
	validator := NewInvoiceValidator(cfg)

	out, err := validator.ValidateInvoiceForCreation(validInvoiceInput())
	require.NoError(t, err)
	assert.Equal(t, "0.19", out.TaxRate.Text('f'))
	assert.Equal(t, "EUR", out.Currency)

	in := validInvoiceInput()
	zero := "0"
	in.TaxRate = &zero
	in.Currency = "gbp"
	out, err = validator.ValidateInvoiceForCreation(in)
	require.NoError(t, err)
	assert.Equal(t, "0", out.TaxRate.Text('f'))
	assert.Equal(t, "GBP", out.Currency)
}

func TestInvoiceValidator_RejectsInvalidInput(t *testing.T) {
	validator := NewInvoiceValidator(nil)

	tests := []struct {
		name   string
		mutate func(*InvoiceInput)
		field  string
	}{
		{"no items", func(in *InvoiceInput) { in.Items = nil }, "items"},
		{"empty description", func(in *InvoiceInput) { in.Items[0].Description = "  " }, "items[0].description"},
		{"zero quantity", func(in *InvoiceInput) { in.Items[1].Quantity = "0" }, "items[1].quantity"},
		{"negative quantity", func(in *InvoiceInput) { in.Items[0].Quantity = "-1" }, "items[0].quantity"},
		{"garbage quantity", func(in *InvoiceInput) { in.Items[0].Quantity = "two" }, "items[0].quantity"},
		{"negative price", func(in *InvoiceInput) { in.Items[0].UnitPrice = "-0.01" }, "items[0].unitPrice"},
		{"missing number", func(in *InvoiceInput) { in.InvoiceNumber = "" }, "invoiceNumber"},
		{"missing client", func(in *InvoiceInput) { in.ClientID = 0 }, "clientId"},
		{"bad issue date", func(in *InvoiceInput) { in.IssueDate = "03/01/2024" }, "issueDate"},
		{"due before issue", func(in *InvoiceInput) { in.DueDate = "2024-02-28" }, "dueDate"},
		{"tax rate above one", func(in *InvoiceInput) { in.TaxRate = strPtr("19") }, "taxRate"},
		{"unknown currency", func(in *InvoiceInput) { in.Currency = "ZZZ" }, "currency"},
		{"bad time entry id", func(in *InvoiceInput) { in.TimeEntryIDs = []int64{4, 0} }, "timeEntryIds[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInvoiceInput()
			tt.mutate(&in)

			_, err := validator.ValidateInvoiceForCreation(in)
			ve, ok := AsValidationError(err)
			require.True(t, ok, "expected ValidationError, got %v", err)
			assert.NotEmpty(t, ve.GetFieldErrors(tt.field), "errors: %v", ve.Errors)
		})
	}
}

func TestInvoiceValidator_ZeroPriceAllowed(t *testing.T) {
	validator := NewInvoiceValidator(nil)
	in := validInvoiceInput()
	in.Items = []InvoiceItemInput{{Description: "Goodwill", Quantity: "1", UnitPrice: "0"}}

	_, err := validator.ValidateInvoiceForCreation(in)
	assert.NoError(t, err)
}

func TestInvoiceValidator_ValidateInvoicePatch(t *testing.T) {
	validator := NewInvoiceValidator(nil)
	current := domain.Invoice{
		IssueDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:    domain.InvoiceDraft,
	}

	notes := "Thanks"
	patch, err := validator.ValidateInvoicePatch(InvoicePatchInput{Notes: &notes}, current)
	require.NoError(t, err)
	assert.Equal(t, &notes, patch.Notes)
	assert.Nil(t, patch.Items)
	assert.Nil(t, patch.DueDate)

	// A new due date is checked against the stored issue date.
	_, err = validator.ValidateInvoicePatch(InvoicePatchInput{DueDate: strPtr("2024-02-01")}, current)
	assert.True(t, IsValidationError(err))

	patch, err = validator.ValidateInvoicePatch(InvoicePatchInput{
		Items: []InvoiceItemInput{{Description: "Audit", Quantity: "1.5", UnitPrice: "80"}},
	}, current)
	require.NoError(t, err)
	require.Len(t, patch.Items, 1)
	assert.Equal(t, "120.0", patch.Items[0].Total.Text('f'))

	_, err = validator.ValidateInvoicePatch(InvoicePatchInput{Items: []InvoiceItemInput{}}, current)
	assert.True(t, IsValidationError(err))
}

func TestInvoiceValidator_ValidatePaidDate(t *testing.T) {
	validator := NewInvoiceValidator(nil)
	now := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)

	got, err := validator.ValidatePaidDate(nil, now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = validator.ValidatePaidDate(strPtr("2024-04-01"), now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = validator.ValidatePaidDate(strPtr("yesterday"), now)
	assert.Error(t, err)
}
