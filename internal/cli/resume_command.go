package cli

import (
	"context"

	"freelancer/internal/errors"
)

// PauseCommand freezes the local timer display
type PauseCommand struct {
	app *App
}

// NewPauseCommand creates a new pause command handler
func NewPauseCommand(app *App) *PauseCommand {
	return &PauseCommand{app: app}
}

// Execute pauses the local display only. The server entry keeps running
// and is billed from start to stop.
func (c *PauseCommand) Execute(ctx context.Context) error {
	now := c.app.clock.Now()
	state, err := c.app.timers.Load(now)
	if err != nil {
		return err
	}
	if state == nil {
		return errors.NewInvalidStateError("timer", "idle", "no timer is running")
	}

	paused, err := state.Pause(now)
	if err != nil {
		return err
	}
	if err := c.app.timers.Save(paused); err != nil {
		return err
	}

	c.app.printf("Timer paused at %s\n", formatClock(paused.Elapsed(now)))
	return nil
}

// ResumeCommand continues a paused local timer
type ResumeCommand struct {
	app *App
}

// NewResumeCommand creates a new resume command handler
func NewResumeCommand(app *App) *ResumeCommand {
	return &ResumeCommand{app: app}
}

// Execute resumes the local display
func (c *ResumeCommand) Execute(ctx context.Context) error {
	now := c.app.clock.Now()
	state, err := c.app.timers.Load(now)
	if err != nil {
		return err
	}
	if state == nil {
		return errors.NewInvalidStateError("timer", "idle", "no timer is running")
	}

	resumed, err := state.Resume(now)
	if err != nil {
		return err
	}
	if err := c.app.timers.Save(resumed); err != nil {
		return err
	}

	c.app.printf("Timer resumed at %s\n", formatClock(resumed.Elapsed(now)))
	return nil
}
