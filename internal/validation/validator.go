package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/currency"

	"freelancer/internal/config"
)

var timeShorthandRegex = regexp.MustCompile(`^(\d+)(m|h|d|w|mo|y)$`)

// Validator provides common validation utilities
type Validator struct {
	config *config.Config
}

// NewValidator creates a new validator instance using default limits
func NewValidator() *Validator {
	return &Validator{config: config.NewConfig()}
}

// NewValidatorWithConfig creates a new validator instance with configuration
func NewValidatorWithConfig(cfg *config.Config) *Validator {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Validator{config: cfg}
}

// IsNonEmptyString checks if a string is not empty after trimming whitespace
func (v *Validator) IsNonEmptyString(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidStringLength checks if a string length in characters is within the specified range
func (v *Validator) IsValidStringLength(s string, min, max int) bool {
	length := utf8.RuneCountInString(strings.TrimSpace(s))
	return length >= min && length <= max
}

// IsValidNameLength checks a client, project or task name against the configured limit
func (v *Validator) IsValidNameLength(name string) bool {
	return v.IsValidStringLength(name, 1, v.NameMaxLength())
}

// IsValidDescriptionLength checks free text against the configured limit
func (v *Validator) IsValidDescriptionLength(s string) bool {
	return utf8.RuneCountInString(s) <= v.DescriptionMaxLength()
}

// IsValidName rejects names containing control characters such as newlines or tabs
func (v *Validator) IsValidName(name string) bool {
	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// IsValidTimeRange checks if start time is strictly before end time
func (v *Validator) IsValidTimeRange(startTime time.Time, endTime *time.Time) bool {
	if endTime == nil {
		return true // Running entry, no end time
	}
	return startTime.Before(*endTime)
}

// IsValidDuration checks if a duration is positive and within the configured maximum
func (v *Validator) IsValidDuration(duration time.Duration) bool {
	return duration > 0 && duration <= v.MaxEntryDuration()
}

// IsValidID checks if an identifier is valid (positive)
func (v *Validator) IsValidID(id int64) bool {
	return id > 0
}

// IsValidEmail checks for a bare RFC 5322 address such as jane@example.com
func (v *Validator) IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// IsValidCurrency checks for a recognised ISO 4217 currency code
func (v *Validator) IsValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	_, err := currency.ParseISO(code)
	return err == nil
}

// IsValidTimeShorthand checks if a time shorthand format is valid
func (v *Validator) IsValidTimeShorthand(shorthand string) bool {
	matches := timeShorthandRegex.FindStringSubmatch(shorthand)
	if matches == nil {
		return false
	}

	value, err := strconv.Atoi(matches[1])
	return err == nil && value > 0
}

// ParseTimeShorthand converts a shorthand such as "2w" into the instant that far before now
func (v *Validator) ParseTimeShorthand(shorthand string, now time.Time) (time.Time, error) {
	if !v.IsValidTimeShorthand(shorthand) {
		return time.Time{}, fmt.Errorf("invalid time shorthand %q, expected forms like 30m, 2h, 1d, 2w, 3mo, 1y", shorthand)
	}

	matches := timeShorthandRegex.FindStringSubmatch(shorthand)
	value, _ := strconv.Atoi(matches[1])

	switch matches[2] {
	case "m":
		return now.Add(-time.Duration(value) * time.Minute), nil
	case "h":
		return now.Add(-time.Duration(value) * time.Hour), nil
	case "d":
		return now.AddDate(0, 0, -value), nil
	case "w":
		return now.AddDate(0, 0, -7*value), nil
	case "mo":
		return now.AddDate(0, -value, 0), nil
	default:
		return now.AddDate(-value, 0, 0), nil
	}
}

// IsReasonableDate checks if a date is within ten years before and one year after now
func (v *Validator) IsReasonableDate(t, now time.Time) bool {
	tenYearsAgo := now.AddDate(-10, 0, 0)
	oneYearFromNow := now.AddDate(1, 0, 0)

	return t.After(tenYearsAgo) && t.Before(oneYearFromNow)
}

// IsValidDateRange checks if a date range is logical
func (v *Validator) IsValidDateRange(startTime, endTime *time.Time) bool {
	if startTime == nil || endTime == nil {
		return true // Open-ended ranges are valid
	}
	return !endTime.Before(*startTime)
}

// TrimAndValidateString trims whitespace and returns the cleaned string
func (v *Validator) TrimAndValidateString(s string) string {
	return strings.TrimSpace(s)
}

// NameMaxLength returns the configured maximum name length
func (v *Validator) NameMaxLength() int {
	return v.config.Validation.NameMaxLength
}

// DescriptionMaxLength returns the configured maximum description length
func (v *Validator) DescriptionMaxLength() int {
	return v.config.Validation.DescriptionMaxLength
}

// MaxEntryDuration returns the configured maximum manual entry duration
func (v *Validator) MaxEntryDuration() time.Duration {
	return v.config.Validation.MaxEntryDuration
}

// DefaultTaxRate returns the configured invoice tax rate
func (v *Validator) DefaultTaxRate() string {
	return v.config.Invoice.TaxRate
}

// DefaultCurrency returns the configured invoice currency
func (v *Validator) DefaultCurrency() string {
	return v.config.Invoice.DefaultCurrency
}
