package api

import (
	"net/url"
	"strconv"
	"time"

	"freelancer/internal/validation"
)

// queryParser reads optional query parameters, collecting every malformed
// one into a single validation error.
type queryParser struct {
	values url.Values
	errs   *validation.ValidationError
}

func newQueryParser(values url.Values) *queryParser {
	return &queryParser{values: values, errs: validation.NewValidationError()}
}

func (p *queryParser) int64(name string) *int64 {
	raw := p.values.Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		p.errs.AddInvalidValueError(name, raw, "must be a positive integer")
		return nil
	}
	return &v
}

func (p *queryParser) bool(name string) *bool {
	raw := p.values.Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs.AddInvalidFormatError(name, raw, "true or false")
		return nil
	}
	return &v
}

// time accepts RFC 3339 timestamps or plain dates, read as UTC midnight
func (p *queryParser) time(name string) *time.Time {
	raw := p.values.Get(name)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return &t
	}
	p.errs.AddInvalidFormatError(name, raw, "2006-01-02 or RFC 3339")
	return nil
}

func (p *queryParser) string(name string) string {
	return p.values.Get(name)
}

func (p *queryParser) err() error {
	return p.errs.AsError()
}
