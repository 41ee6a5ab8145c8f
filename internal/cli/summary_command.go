package cli

import (
	"context"
	"strings"

	"freelancer/internal/domain"
	"freelancer/internal/services"
)

const summaryWidth = 75

// SummaryCommand prints logged time per project
type SummaryCommand struct {
	app *App
}

// NewSummaryCommand creates a new summary command handler
func NewSummaryCommand(app *App) *SummaryCommand {
	return &SummaryCommand{app: app}
}

// Execute summarizes all entries, or those within a shorthand window
func (c *SummaryCommand) Execute(ctx context.Context, since string) error {
	var summary *services.WorkSummary
	var err error
	if since != "" {
		summary, err = c.app.services.Reporting.SummarizeSince(ctx, c.app.userID(), since)
	} else {
		summary, err = c.app.services.Reporting.Summarize(ctx, c.app.userID(), domain.SearchOptions{})
	}
	if err != nil {
		return err
	}

	c.print(summary)
	return nil
}

func (c *SummaryCommand) print(summary *services.WorkSummary) {
	if len(summary.Projects) == 0 {
		c.app.println("No time entries found")
		return
	}

	c.app.printf("%-30s %8s %10s %10s %12s\n", "Project", "Entries", "Total", "Unbilled", "Amount")
	c.app.println(strings.Repeat("-", summaryWidth))

	for _, p := range summary.Projects {
		name := p.ProjectName
		if p.Running {
			name += " *"
		}
		amount := "-"
		if p.UnbilledAmount != nil {
			amount = domain.FormatDecimal(*p.UnbilledAmount)
		}
		c.app.printf("%-30s %8d %10s %10s %12s\n",
			truncate(name, 30), p.EntryCount, formatMinutes(p.TotalMinutes), formatMinutes(p.UnbilledMinutes), amount)
	}

	c.app.println(strings.Repeat("-", summaryWidth))
	c.app.printf("Total: %s, billable %s, unbilled %s\n",
		formatMinutes(summary.TotalMinutes), formatMinutes(summary.BillableMinutes), formatMinutes(summary.UnbilledMinutes))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
