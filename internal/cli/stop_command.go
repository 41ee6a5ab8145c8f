package cli

import (
	"context"

	"freelancer/internal/errors"
)

// StopCommand stops the running timer
type StopCommand struct {
	app *App
}

// NewStopCommand creates a new stop command handler
func NewStopCommand(app *App) *StopCommand {
	return &StopCommand{app: app}
}

// Execute stops the entry recorded locally, or the server's running entry
// when the local file is gone. The duration printed is the server's.
func (c *StopCommand) Execute(ctx context.Context) error {
	state, err := c.app.timers.Load(c.app.clock.Now())
	if err != nil {
		return err
	}

	var entryID int64
	if state != nil {
		entryID = state.TimeEntryID
	} else {
		running, err := c.app.services.Timer.Current(ctx, c.app.userID())
		if err != nil {
			return err
		}
		entryID = running.ID
	}

	entry, err := c.app.services.Timer.Stop(ctx, c.app.userID(), entryID)
	if err != nil && state != nil && isGone(err) {
		// stopped or deleted elsewhere, e.g. through the API
		if err := c.app.timers.Clear(); err != nil {
			return err
		}
		c.app.printf("Entry %d is no longer running; cleared local timer\n", entryID)
		return nil
	}
	if err != nil {
		return err
	}
	if err := c.app.timers.Clear(); err != nil {
		return err
	}

	minutes := 0
	if entry.DurationMinutes != nil {
		minutes = *entry.DurationMinutes
	}
	c.app.printf("Timer stopped (entry %d): %s\n", entry.ID, formatMinutes(minutes))
	return nil
}

func isGone(err error) bool {
	return errors.IsErrorType(err, errors.ErrorTypeInvalidState) || errors.IsErrorType(err, errors.ErrorTypeNotFound)
}
