package cli

import (
	"context"
)

// SweepCommand runs the reconciliation jobs
type SweepCommand struct {
	app *App
}

// NewSweepCommand creates a new sweep command handler
func NewSweepCommand(app *App) *SweepCommand {
	return &SweepCommand{app: app}
}

// Execute closes timers abandoned longer than timer.abandon_after and flags
// sent invoices that are past due, for every user.
func (c *SweepCommand) Execute(ctx context.Context) error {
	closed, err := c.app.services.Timer.SweepAbandoned(ctx, c.app.config.Timer.AbandonAfter)
	if err != nil {
		return err
	}
	overdue, err := c.app.services.Invoices.SweepOverdue(ctx)
	if err != nil {
		return err
	}

	for _, entry := range closed {
		if state, _ := c.app.timers.Load(c.app.clock.Now()); state != nil && state.TimeEntryID == entry.ID {
			if err := c.app.timers.Clear(); err != nil {
				return err
			}
		}
	}

	c.app.printf("Closed %d abandoned timer(s), marked %d invoice(s) overdue\n", len(closed), len(overdue))
	return nil
}
