package cli

import (
	"context"
	"strings"
)

// UserCommand manages accounts
type UserCommand struct {
	app *App
}

// NewUserCommand creates a new user command handler
func NewUserCommand(app *App) *UserCommand {
	return &UserCommand{app: app}
}

// Add creates a user and prints its id, which the API expects in X-User-ID.
// Without a name the local part of the email is used.
func (c *UserCommand) Add(ctx context.Context, email, name string) error {
	if strings.TrimSpace(name) == "" {
		name = defaultUserName(email)
	}
	user, err := c.app.services.Clients.CreateUser(ctx, email, name)
	if err != nil {
		return err
	}
	c.app.printf("Created user %d <%s>\n", user.ID, user.Email)
	return nil
}

func defaultUserName(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return local
}
