package domain

import (
	"github.com/cockroachdb/apd/v3"

	"freelancer/internal/errors"
)

// Totals are the derived money fields of an invoice.
type Totals struct {
	Subtotal  apd.Decimal
	TaxAmount apd.Decimal
	Discount  apd.Decimal
	Total     apd.Decimal
}

// LineTotal is quantity × unit price at full precision.
func LineTotal(quantity, unitPrice apd.Decimal) (apd.Decimal, error) {
	return mul(quantity, unitPrice)
}

// ComputeTotals derives subtotal, tax and total from the items.
// Each line product is summed at full precision; only the tax amount is
// rounded, half up to cents. Discount is reserved and always zero.
func ComputeTotals(items []InvoiceItem, taxRate apd.Decimal) (Totals, error) {
	subtotal := Zero()
	for _, item := range items {
		line, err := LineTotal(item.Quantity, item.UnitPrice)
		if err != nil {
			return Totals{}, err
		}
		if subtotal, err = add(subtotal, line); err != nil {
			return Totals{}, err
		}
	}

	rawTax, err := mul(subtotal, taxRate)
	if err != nil {
		return Totals{}, err
	}
	tax, err := roundCents(rawTax)
	if err != nil {
		return Totals{}, err
	}

	discount := Zero()
	withTax, err := add(subtotal, tax)
	if err != nil {
		return Totals{}, err
	}
	total, err := sub(withTax, discount)
	if err != nil {
		return Totals{}, err
	}

	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Discount:  discount,
		Total:     total,
	}, nil
}

// BillableAmount prices whole minutes at an hourly rate, rounded half up to cents.
func BillableAmount(minutes int, hourlyRate apd.Decimal) (apd.Decimal, error) {
	var hours apd.Decimal
	if _, err := decimalContext.Quo(&hours, apd.New(int64(minutes), 0), apd.New(60, 0)); err != nil {
		return apd.Decimal{}, errors.NewValidationError("decimal division failed", err)
	}
	amount, err := mul(hours, hourlyRate)
	if err != nil {
		return apd.Decimal{}, err
	}
	return roundCents(amount)
}
