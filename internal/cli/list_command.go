package cli

import (
	"context"
	"fmt"

	"freelancer/internal/domain"
	"freelancer/internal/validation"
)

const entryTimeFormat = "2006-01-02 15:04"

// ListCommand lists time entries
type ListCommand struct {
	app *App
}

// NewListCommand creates a new list command handler
func NewListCommand(app *App) *ListCommand {
	return &ListCommand{app: app}
}

// Execute lists entries, optionally only those started within a shorthand
// window such as "2d", and optionally for one project.
func (c *ListCommand) Execute(ctx context.Context, since string, projectID *int64) error {
	opts, err := entryWindow(c.app, since)
	if err != nil {
		return err
	}
	opts.ProjectID = projectID

	entries, err := c.app.services.TimeEntries.List(ctx, c.app.userID(), opts)
	if err != nil {
		return err
	}
	return c.printEntries(entries)
}

// printEntries prints one line per entry, running entries marked as such:
// start - end (duration) [flags]: description
func (c *ListCommand) printEntries(entries []*domain.TimeEntry) error {
	if len(entries) == 0 {
		c.app.println("No time entries found")
		return nil
	}

	for _, entry := range entries {
		end := "running"
		duration := "-"
		if entry.EndTime != nil {
			end = entry.EndTime.Format(entryTimeFormat)
		}
		if entry.DurationMinutes != nil {
			duration = formatMinutes(*entry.DurationMinutes)
		}

		flags := ""
		switch {
		case entry.IsBilled:
			flags = " [billed]"
		case !entry.IsBillable:
			flags = " [non-billable]"
		}

		c.app.printf("#%d %s - %s (%s)%s: %s\n",
			entry.ID, entry.StartTime.Format(entryTimeFormat), end, duration, flags, describe(entry))
	}
	return nil
}

// entryWindow turns an optional shorthand into search options covering
// entries started since then, the running one included
func entryWindow(app *App, since string) (domain.SearchOptions, error) {
	if since == "" {
		return domain.SearchOptions{}, nil
	}
	from, err := validation.NewTimeEntryValidator(app.config).ParseSince(since, app.clock.Now())
	if err != nil {
		return domain.SearchOptions{}, err
	}
	return domain.SearchOptions{From: &from}, nil
}

func describe(entry *domain.TimeEntry) string {
	if entry.Description == "" {
		return fmt.Sprintf("project %d", entry.ProjectID)
	}
	return entry.Description
}
