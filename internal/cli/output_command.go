package cli

import (
	"context"
	"encoding/csv"
	"strconv"
	"time"

	"freelancer/internal/errors"
)

// OutputCommand exports time entries
type OutputCommand struct {
	app *App
}

// NewOutputCommand creates a new output command handler
func NewOutputCommand(app *App) *OutputCommand {
	return &OutputCommand{app: app}
}

// Execute writes entries in the requested format. Only csv is supported.
func (c *OutputCommand) Execute(ctx context.Context, format, since string) error {
	if format != "csv" {
		return errors.NewInvalidInputError("format", format, "unsupported format")
	}

	opts, err := entryWindow(c.app, since)
	if err != nil {
		return err
	}
	entries, err := c.app.services.TimeEntries.List(ctx, c.app.userID(), opts)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(c.app.out)
	header := []string{"ID", "Project ID", "Start Time", "End Time", "Duration (minutes)", "Billable", "Billed", "Invoice ID", "Description"}
	if err := writer.Write(header); err != nil {
		return errors.WrapError(err, errors.ErrorTypeInvalidInput, "failed to write CSV header")
	}

	for _, entry := range entries {
		var end, duration, invoice string
		if entry.EndTime != nil {
			end = entry.EndTime.Format(time.RFC3339)
		}
		if entry.DurationMinutes != nil {
			duration = strconv.Itoa(*entry.DurationMinutes)
		}
		if entry.InvoiceID != nil {
			invoice = strconv.FormatInt(*entry.InvoiceID, 10)
		}

		row := []string{
			strconv.FormatInt(entry.ID, 10),
			strconv.FormatInt(entry.ProjectID, 10),
			entry.StartTime.Format(time.RFC3339),
			end,
			duration,
			strconv.FormatBool(entry.IsBillable),
			strconv.FormatBool(entry.IsBilled),
			invoice,
			entry.Description,
		}
		if err := writer.Write(row); err != nil {
			return errors.WrapError(err, errors.ErrorTypeInvalidInput, "failed to write CSV row")
		}
	}

	writer.Flush()
	return writer.Error()
}
