package cli

import (
	"context"

	"freelancer/internal/domain"
)

// StartCommand starts a server timer and mirrors it locally
type StartCommand struct {
	app *App
}

// NewStartCommand creates a new start command handler
func NewStartCommand(app *App) *StartCommand {
	return &StartCommand{app: app}
}

// Execute starts the timer. The server rejects a second running timer, so
// the local file is only written once the entry exists.
func (c *StartCommand) Execute(ctx context.Context, projectID int64, taskID *int64, description string) error {
	entry, err := c.app.services.Timer.Start(ctx, c.app.userID(), projectID, taskID, description)
	if err != nil {
		return err
	}

	if err := c.app.timers.Save(domain.NewTimerState(*entry)); err != nil {
		return err
	}

	c.app.printf("Timer started (entry %d) at %s\n", entry.ID, entry.StartTime.Format("15:04:05"))
	return nil
}
