package cli

import (
	"context"

	"freelancer/internal/domain"
	"freelancer/internal/validation"
)

// CatalogCommand manages the clients and projects time is logged against
type CatalogCommand struct {
	app *App
}

// NewCatalogCommand creates a new catalog command handler
func NewCatalogCommand(app *App) *CatalogCommand {
	return &CatalogCommand{app: app}
}

// AddClient creates a client
func (c *CatalogCommand) AddClient(ctx context.Context, name, email string) error {
	client, err := c.app.services.Clients.CreateClient(ctx, c.app.userID(), validation.ClientInput{Name: name, Email: email})
	if err != nil {
		return err
	}
	c.app.printf("Created client %d: %s\n", client.ID, client.Name)
	return nil
}

// ListClients prints every client of the CLI user
func (c *CatalogCommand) ListClients(ctx context.Context) error {
	clients, err := c.app.services.Clients.ListClients(ctx, c.app.userID())
	if err != nil {
		return err
	}
	if len(clients) == 0 {
		c.app.println("No clients found")
		return nil
	}
	for _, client := range clients {
		if client.Email != "" {
			c.app.printf("%d\t%s <%s>\n", client.ID, client.Name, client.Email)
		} else {
			c.app.printf("%d\t%s\n", client.ID, client.Name)
		}
	}
	return nil
}

// AddProject creates a project. rate is a decimal string; empty means no rate.
func (c *CatalogCommand) AddProject(ctx context.Context, clientID int64, name, rate string) error {
	in := validation.ProjectInput{ClientID: clientID, Name: name}
	if rate != "" {
		in.HourlyRate = &rate
	}
	project, err := c.app.services.Clients.CreateProject(ctx, c.app.userID(), in)
	if err != nil {
		return err
	}
	c.app.printf("Created project %d: %s\n", project.ID, project.Name)
	return nil
}

// ListProjects prints projects, optionally of one client
func (c *CatalogCommand) ListProjects(ctx context.Context, clientID *int64) error {
	projects, err := c.app.services.Clients.ListProjects(ctx, c.app.userID(), clientID)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		c.app.println("No projects found")
		return nil
	}
	for _, project := range projects {
		rate := "no rate"
		if project.HourlyRate != nil {
			rate = domain.FormatDecimal(*project.HourlyRate) + "/h"
		}
		c.app.printf("%d\t%s (client %d, %s)\n", project.ID, project.Name, project.ClientID, rate)
	}
	return nil
}
