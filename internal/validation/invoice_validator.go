package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"freelancer/internal/config"
	"freelancer/internal/domain"
)

const dateLayout = "2006-01-02"

// InvoiceItemInput is one caller-supplied line. Quantities and prices are decimal strings.
type InvoiceItemInput struct {
	Description string
	Quantity    string
	UnitPrice   string
}

// InvoiceInput is the caller-supplied data for a new invoice
type InvoiceInput struct {
	ClientID      int64
	ProjectID     *int64
	InvoiceNumber string
	IssueDate     string
	DueDate       string
	TaxRate       *string
	Currency      string
	Notes         string
	Items         []InvoiceItemInput
	TimeEntryIDs  []int64
}

// InvoicePatchInput holds the fields supplied in an invoice update; nil means unchanged
type InvoicePatchInput struct {
	InvoiceNumber *string
	IssueDate     *string
	DueDate       *string
	TaxRate       *string
	Currency      *string
	Notes         *string
	Items         []InvoiceItemInput
}

// ValidatedInvoice carries the parsed values of a valid InvoiceInput
type ValidatedInvoice struct {
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       time.Time
	TaxRate       apd.Decimal
	Currency      string
	Notes         string
	Items         []domain.InvoiceItem
}

// InvoiceValidator provides validation for invoice operations
type InvoiceValidator struct {
	validator *Validator
}

// NewInvoiceValidator creates a new invoice validator
func NewInvoiceValidator(cfg *config.Config) *InvoiceValidator {
	return &InvoiceValidator{validator: NewValidatorWithConfig(cfg)}
}

// ValidateInvoiceForCreation validates and parses a new invoice. Tax rate and
// currency fall back to the configured defaults.
func (iv *InvoiceValidator) ValidateInvoiceForCreation(in InvoiceInput) (ValidatedInvoice, error) {
	validationError := NewValidationError()
	out := ValidatedInvoice{Notes: in.Notes}

	if !iv.validator.IsValidID(in.ClientID) {
		validationError.AddInvalidValueError("clientId", in.ClientID, "must be a positive integer")
	}
	if in.ProjectID != nil && !iv.validator.IsValidID(*in.ProjectID) {
		validationError.AddInvalidValueError("projectId", *in.ProjectID, "must be a positive integer")
	}
	for i, id := range in.TimeEntryIDs {
		if !iv.validator.IsValidID(id) {
			validationError.AddInvalidValueError(fmt.Sprintf("timeEntryIds[%d]", i), id, "must be a positive integer")
		}
	}

	out.InvoiceNumber = iv.validateNumber(validationError, in.InvoiceNumber)

	issue, issueOK := iv.parseDate(validationError, "issueDate", in.IssueDate)
	due, dueOK := iv.parseDate(validationError, "dueDate", in.DueDate)
	if issueOK && dueOK && due.Before(issue) {
		validationError.AddInvalidRangeError("dueDate", in.DueDate, "due date cannot be before issue date")
	}
	out.IssueDate, out.DueDate = issue, due

	rate := iv.validator.DefaultTaxRate()
	if in.TaxRate != nil {
		rate = *in.TaxRate
	}
	out.TaxRate = iv.parseTaxRate(validationError, rate)

	currencyCode := in.Currency
	if strings.TrimSpace(currencyCode) == "" {
		currencyCode = iv.validator.DefaultCurrency()
	}
	out.Currency = iv.validateCurrency(validationError, currencyCode)

	if !iv.validator.IsValidDescriptionLength(in.Notes) {
		validationError.AddInvalidLengthError("notes", in.Notes, 0, iv.validator.DescriptionMaxLength())
	}

	out.Items = iv.parseItems(validationError, in.Items)

	if validationError.HasErrors() {
		return ValidatedInvoice{}, validationError
	}
	return out, nil
}

// ValidateInvoicePatch validates an update against the invoice it will be applied to
func (iv *InvoiceValidator) ValidateInvoicePatch(in InvoicePatchInput, current domain.Invoice) (domain.InvoicePatch, error) {
	validationError := NewValidationError()
	var patch domain.InvoicePatch

	if in.InvoiceNumber != nil {
		number := iv.validateNumber(validationError, *in.InvoiceNumber)
		patch.InvoiceNumber = &number
	}

	issue, due := current.IssueDate, current.DueDate
	datesOK := true
	if in.IssueDate != nil {
		parsed, ok := iv.parseDate(validationError, "issueDate", *in.IssueDate)
		issue, datesOK = parsed, datesOK && ok
		patch.IssueDate = &parsed
	}
	if in.DueDate != nil {
		parsed, ok := iv.parseDate(validationError, "dueDate", *in.DueDate)
		due, datesOK = parsed, datesOK && ok
		patch.DueDate = &parsed
	}
	if datesOK && due.Before(issue) {
		validationError.AddInvalidRangeError("dueDate", due.Format(dateLayout), "due date cannot be before issue date")
	}

	if in.TaxRate != nil {
		rate := iv.parseTaxRate(validationError, *in.TaxRate)
		patch.TaxRate = &rate
	}
	if in.Currency != nil {
		code := iv.validateCurrency(validationError, *in.Currency)
		patch.Currency = &code
	}
	if in.Notes != nil {
		if !iv.validator.IsValidDescriptionLength(*in.Notes) {
			validationError.AddInvalidLengthError("notes", *in.Notes, 0, iv.validator.DescriptionMaxLength())
		}
		patch.Notes = in.Notes
	}
	if in.Items != nil {
		patch.Items = iv.parseItems(validationError, in.Items)
	}

	if validationError.HasErrors() {
		return domain.InvoicePatch{}, validationError
	}
	return patch, nil
}

// ValidatePaidDate parses an optional paid date; nil means now
func (iv *InvoiceValidator) ValidatePaidDate(paidDate *string, now time.Time) (time.Time, error) {
	if paidDate == nil || strings.TrimSpace(*paidDate) == "" {
		return now, nil
	}
	validationError := NewValidationError()
	parsed, _ := iv.parseDate(validationError, "paidDate", *paidDate)
	if validationError.HasErrors() {
		return time.Time{}, validationError
	}
	return parsed, nil
}

func (iv *InvoiceValidator) validateNumber(validationError *ValidationError, number string) string {
	trimmed := iv.validator.TrimAndValidateString(number)
	switch {
	case trimmed == "":
		validationError.AddRequiredError("invoiceNumber")
	case !iv.validator.IsValidNameLength(trimmed):
		validationError.AddInvalidLengthError("invoiceNumber", trimmed, 1, iv.validator.NameMaxLength())
	case !iv.validator.IsValidName(trimmed):
		validationError.AddInvalidCharacterError("invoiceNumber", trimmed)
	}
	return trimmed
}

func (iv *InvoiceValidator) parseDate(validationError *ValidationError, field, value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		validationError.AddRequiredError(field)
		return time.Time{}, false
	}
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		validationError.AddInvalidFormatError(field, value, "YYYY-MM-DD")
		return time.Time{}, false
	}
	return parsed, true
}

func (iv *InvoiceValidator) parseTaxRate(validationError *ValidationError, value string) apd.Decimal {
	rate, err := domain.ParseDecimal(value)
	if err != nil {
		validationError.AddInvalidFormatError("taxRate", value, "decimal fraction such as 0.2")
		return apd.Decimal{}
	}
	if rate.Sign() < 0 || rate.Cmp(apd.New(1, 0)) > 0 {
		validationError.AddInvalidRangeError("taxRate", value, "must be between 0 and 1")
	}
	return rate
}

func (iv *InvoiceValidator) validateCurrency(validationError *ValidationError, code string) string {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if !iv.validator.IsValidCurrency(normalized) {
		validationError.AddInvalidValueError("currency", code, "must be an ISO 4217 currency code")
	}
	return normalized
}

func (iv *InvoiceValidator) parseItems(validationError *ValidationError, inputs []InvoiceItemInput) []domain.InvoiceItem {
	if len(inputs) == 0 {
		validationError.AddInvalidValueError("items", nil, "at least one line item is required")
		return nil
	}

	items := make([]domain.InvoiceItem, 0, len(inputs))
	for i, in := range inputs {
		prefix := fmt.Sprintf("items[%d]", i)
		before := len(validationError.Errors)

		description := iv.validator.TrimAndValidateString(in.Description)
		if description == "" {
			validationError.AddRequiredError(prefix + ".description")
		} else if !iv.validator.IsValidDescriptionLength(description) {
			validationError.AddInvalidLengthError(prefix+".description", description, 1, iv.validator.DescriptionMaxLength())
		}

		quantity, err := domain.ParseDecimal(in.Quantity)
		if err != nil {
			validationError.AddInvalidFormatError(prefix+".quantity", in.Quantity, "decimal number")
		} else if quantity.Sign() <= 0 {
			validationError.AddInvalidRangeError(prefix+".quantity", in.Quantity, "must be greater than 0")
		}

		unitPrice, err := domain.ParseDecimal(in.UnitPrice)
		if err != nil {
			validationError.AddInvalidFormatError(prefix+".unitPrice", in.UnitPrice, "decimal number")
		} else if unitPrice.Sign() < 0 {
			validationError.AddInvalidRangeError(prefix+".unitPrice", in.UnitPrice, "must not be negative")
		}

		if len(validationError.Errors) > before {
			continue
		}
		item, err := domain.NewInvoiceItem(description, quantity, unitPrice)
		if err != nil {
			validationError.AddInvalidValueError(prefix, nil, err.Error())
			continue
		}
		items = append(items, item)
	}
	return items
}
