package cli

import (
	"context"

	"freelancer/internal/api"
)

// ServeCommand runs the HTTP API
type ServeCommand struct {
	app *App
}

// NewServeCommand creates a new serve command handler
func NewServeCommand(app *App) *ServeCommand {
	return &ServeCommand{app: app}
}

// Execute serves until ctx is cancelled
func (c *ServeCommand) Execute(ctx context.Context) error {
	server := api.NewServer(c.app.services, c.app.logger)
	return server.ListenAndServe(ctx, c.app.config.Server)
}
