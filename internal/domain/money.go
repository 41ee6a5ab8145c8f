package domain

import (
	"strings"

	"github.com/cockroachdb/apd/v3"

	"freelancer/internal/errors"
)

// decimalContext is shared by all money arithmetic: 34 significant digits
// with half-up rounding wherever a result is quantized.
var decimalContext = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(34)
	c.Rounding = apd.RoundHalfUp
	return c
}()

// ParseDecimal parses a decimal string such as "12.50". Infinities and NaN are rejected.
func ParseDecimal(s string) (apd.Decimal, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return apd.Decimal{}, errors.NewInvalidInputError("decimal", s, "not a valid decimal number")
	}
	if d.Form != apd.Finite {
		return apd.Decimal{}, errors.NewInvalidInputError("decimal", s, "must be a finite number")
	}
	return *d, nil
}

// MustDecimal is ParseDecimal for literals known to be valid.
func MustDecimal(s string) apd.Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FormatDecimal renders d in plain notation, without exponent.
func FormatDecimal(d apd.Decimal) string {
	return d.Text('f')
}

// Zero returns a fresh zero decimal.
func Zero() apd.Decimal {
	return *apd.New(0, 0)
}

func mul(x, y apd.Decimal) (apd.Decimal, error) {
	var d apd.Decimal
	if _, err := decimalContext.Mul(&d, &x, &y); err != nil {
		return apd.Decimal{}, errors.NewValidationError("decimal multiplication failed", err)
	}
	return d, nil
}

func add(x, y apd.Decimal) (apd.Decimal, error) {
	var d apd.Decimal
	if _, err := decimalContext.Add(&d, &x, &y); err != nil {
		return apd.Decimal{}, errors.NewValidationError("decimal addition failed", err)
	}
	return d, nil
}

func sub(x, y apd.Decimal) (apd.Decimal, error) {
	var d apd.Decimal
	if _, err := decimalContext.Sub(&d, &x, &y); err != nil {
		return apd.Decimal{}, errors.NewValidationError("decimal subtraction failed", err)
	}
	return d, nil
}

// roundCents quantizes to two decimal places, half up.
func roundCents(x apd.Decimal) (apd.Decimal, error) {
	var d apd.Decimal
	if _, err := decimalContext.Quantize(&d, &x, -2); err != nil {
		return apd.Decimal{}, errors.NewValidationError("decimal rounding failed", err)
	}
	return d, nil
}
