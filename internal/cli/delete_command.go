package cli

import (
	"context"
)

// DeleteCommand deletes a time entry
type DeleteCommand struct {
	app *App
}

// NewDeleteCommand creates a new delete command handler
func NewDeleteCommand(app *App) *DeleteCommand {
	return &DeleteCommand{app: app}
}

// Execute deletes one entry. Billed entries are refused by the service.
// A running entry is deleted too, so the local mirror is cleared with it.
func (c *DeleteCommand) Execute(ctx context.Context, entryID int64) error {
	if err := c.app.services.TimeEntries.Delete(ctx, c.app.userID(), entryID); err != nil {
		return err
	}

	state, err := c.app.timers.Load(c.app.clock.Now())
	if err != nil {
		return err
	}
	if state != nil && state.TimeEntryID == entryID {
		if err := c.app.timers.Clear(); err != nil {
			return err
		}
	}

	c.app.printf("Deleted time entry %d\n", entryID)
	return nil
}
