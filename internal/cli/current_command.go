package cli

import (
	"context"
)

// CurrentCommand shows the local timer
type CurrentCommand struct {
	app *App
}

// NewCurrentCommand creates a new current command handler
func NewCurrentCommand(app *App) *CurrentCommand {
	return &CurrentCommand{app: app}
}

// Execute prints the local timer, or notes that none is running
func (c *CurrentCommand) Execute(ctx context.Context) error {
	now := c.app.clock.Now()
	state, err := c.app.timers.Load(now)
	if err != nil {
		return err
	}
	if state == nil {
		c.app.println("No timer is running")
		return nil
	}

	description := state.Description
	if description == "" {
		description = "(no description)"
	}
	c.app.printf("%s: entry %d, project %d, %s %s\n",
		state.Status(), state.TimeEntryID, state.ProjectID, formatClock(state.Elapsed(now)), description)
	return nil
}
