package services

import (
	"context"
	"log/slog"
	"strings"

	"freelancer/internal/domain"
	"freelancer/internal/errors"
	"freelancer/internal/repository/sqlite"
	"freelancer/internal/validation"
)

// clientServiceImpl implements the ClientService interface
type clientServiceImpl struct {
	repo            sqlite.Repository
	mapper          *domain.Mapper
	entityValidator *validation.EntityValidator
	clock           Clock
	logger          *slog.Logger
}

// NewClientService creates a new ClientService instance
func NewClientService(repo sqlite.Repository, validator *validation.EntityValidator, clock Clock, logger *slog.Logger) ClientService {
	return &clientServiceImpl{
		repo:            repo,
		mapper:          domain.NewMapper(),
		entityValidator: validator,
		clock:           clock,
		logger:          logger,
	}
}

func (s *clientServiceImpl) CreateUser(ctx context.Context, email, name string) (*domain.User, error) {
	if err := s.entityValidator.ValidateUser(email, name); err != nil {
		return nil, err
	}

	dbUser := sqlite.User{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Name:      strings.TrimSpace(name),
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateUser(ctx, &dbUser); err != nil {
		return nil, err
	}

	user := s.mapper.Client.UserFromDatabase(dbUser)
	s.logger.Info("user created", "user_id", user.ID)
	return &user, nil
}

func (s *clientServiceImpl) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	dbUser, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user := s.mapper.Client.UserFromDatabase(*dbUser)
	return &user, nil
}

func (s *clientServiceImpl) CreateClient(ctx context.Context, userID int64, in validation.ClientInput) (*domain.Client, error) {
	if err := s.entityValidator.ValidateClient(in); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	dbClient := s.mapper.Client.ToDatabase(domain.Client{
		UserID:    userID,
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err := s.repo.CreateClient(ctx, &dbClient); err != nil {
		return nil, err
	}

	client := s.mapper.Client.FromDatabase(dbClient)
	s.logger.Debug("client created", "user_id", userID, "client_id", client.ID)
	return &client, nil
}

func (s *clientServiceImpl) GetClient(ctx context.Context, userID, id int64) (*domain.Client, error) {
	dbClient, err := s.repo.GetClient(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	client := s.mapper.Client.FromDatabase(*dbClient)
	return &client, nil
}

func (s *clientServiceImpl) ListClients(ctx context.Context, userID int64) ([]*domain.Client, error) {
	dbClients, err := s.repo.ListClients(ctx, userID)
	if err != nil {
		return nil, err
	}
	clients := make([]*domain.Client, len(dbClients))
	for i, dbClient := range dbClients {
		client := s.mapper.Client.FromDatabase(*dbClient)
		clients[i] = &client
	}
	return clients, nil
}

func (s *clientServiceImpl) UpdateClient(ctx context.Context, userID, id int64, in validation.ClientInput) (*domain.Client, error) {
	if err := s.entityValidator.ValidateClient(in); err != nil {
		return nil, err
	}

	var updated domain.Client
	err := s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		dbClient, err := tx.GetClient(ctx, userID, id)
		if err != nil {
			return err
		}
		dbClient.Name = strings.TrimSpace(in.Name)
		dbClient.Email = strings.TrimSpace(in.Email)
		if err := tx.UpdateClient(ctx, dbClient); err != nil {
			return err
		}
		updated = s.mapper.Client.FromDatabase(*dbClient)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteClient removes a client and its projects. A client that still has
// invoices is a conflict; one whose projects hold billed entries is refused.
func (s *clientServiceImpl) DeleteClient(ctx context.Context, userID, id int64) error {
	err := s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		if _, err := tx.GetClient(ctx, userID, id); err != nil {
			return err
		}
		projects, err := tx.ListProjects(ctx, userID, &id)
		if err != nil {
			return err
		}
		for _, project := range projects {
			if err := s.checkNoBilledEntries(ctx, tx, userID, project.ID); err != nil {
				return err
			}
		}
		return tx.DeleteClient(ctx, userID, id)
	})
	if err != nil {
		return err
	}
	s.logger.Debug("client deleted", "user_id", userID, "client_id", id)
	return nil
}

func (s *clientServiceImpl) CreateProject(ctx context.Context, userID int64, in validation.ProjectInput) (*domain.Project, error) {
	rate, err := s.entityValidator.ValidateProject(in)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var created domain.Project
	err = s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		// The client must belong to the same user, not merely exist.
		if _, err := tx.GetClient(ctx, userID, in.ClientID); err != nil {
			return err
		}

		dbProject := s.mapper.Client.ProjectToDatabase(domain.Project{
			UserID:     userID,
			ClientID:   in.ClientID,
			Name:       strings.TrimSpace(in.Name),
			HourlyRate: rate,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err := tx.CreateProject(ctx, &dbProject); err != nil {
			return err
		}
		created, err = s.mapper.Client.ProjectFromDatabase(dbProject)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("project created", "user_id", userID, "project_id", created.ID, "client_id", in.ClientID)
	return &created, nil
}

func (s *clientServiceImpl) GetProject(ctx context.Context, userID, id int64) (*domain.Project, error) {
	dbProject, err := s.repo.GetProject(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	project, err := s.mapper.Client.ProjectFromDatabase(*dbProject)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *clientServiceImpl) ListProjects(ctx context.Context, userID int64, clientID *int64) ([]*domain.Project, error) {
	dbProjects, err := s.repo.ListProjects(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}
	projects := make([]*domain.Project, 0, len(dbProjects))
	for _, dbProject := range dbProjects {
		project, err := s.mapper.Client.ProjectFromDatabase(*dbProject)
		if err != nil {
			return nil, err
		}
		projects = append(projects, &project)
	}
	return projects, nil
}

func (s *clientServiceImpl) UpdateProject(ctx context.Context, userID, id int64, in validation.ProjectInput) (*domain.Project, error) {
	rate, err := s.entityValidator.ValidateProject(in)
	if err != nil {
		return nil, err
	}

	var updated domain.Project
	err = s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		current, err := tx.GetProject(ctx, userID, id)
		if err != nil {
			return err
		}
		if current.ClientID != in.ClientID {
			if _, err := tx.GetClient(ctx, userID, in.ClientID); err != nil {
				return err
			}
		}

		dbProject := s.mapper.Client.ProjectToDatabase(domain.Project{
			ID:         id,
			UserID:     userID,
			ClientID:   in.ClientID,
			Name:       strings.TrimSpace(in.Name),
			HourlyRate: rate,
			CreatedAt:  current.CreatedAt,
		})
		if err := tx.UpdateProject(ctx, &dbProject); err != nil {
			return err
		}
		updated, err = s.mapper.Client.ProjectFromDatabase(dbProject)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProject removes a project with its tasks and entries. Entries
// attached to an invoice are immutable, so a project holding any is refused.
func (s *clientServiceImpl) DeleteProject(ctx context.Context, userID, id int64) error {
	err := s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		if _, err := tx.GetProject(ctx, userID, id); err != nil {
			return err
		}
		if err := s.checkNoBilledEntries(ctx, tx, userID, id); err != nil {
			return err
		}
		return tx.DeleteProject(ctx, userID, id)
	})
	if err != nil {
		return err
	}
	s.logger.Debug("project deleted", "user_id", userID, "project_id", id)
	return nil
}

func (s *clientServiceImpl) checkNoBilledEntries(ctx context.Context, tx sqlite.Repository, userID, projectID int64) error {
	dbEntries, err := tx.SearchTimeEntries(ctx, sqlite.SearchOptions{UserID: userID, ProjectID: &projectID})
	if err != nil {
		return err
	}
	for _, entry := range s.mapper.TimeEntry.FromDatabaseSlice(dbEntries) {
		if entry.IsLocked() {
			return errors.NewInvalidStateError("project", "billed",
				"project has billed time entries and cannot be deleted").
				WithContext("time_entry_id", entry.ID)
		}
	}
	return nil
}

func (s *clientServiceImpl) CreateTask(ctx context.Context, userID, projectID int64, name string) (*domain.Task, error) {
	if err := s.entityValidator.ValidateID("projectId", projectID); err != nil {
		return nil, err
	}
	if err := s.entityValidator.ValidateTaskName(name); err != nil {
		return nil, err
	}

	var created domain.Task
	err := s.repo.WithTx(ctx, func(tx sqlite.Repository) error {
		if _, err := tx.GetProject(ctx, userID, projectID); err != nil {
			return err
		}
		task := domain.NewTask(userID, projectID, strings.TrimSpace(name))
		task.CreatedAt = s.clock.Now()
		dbTask := s.mapper.Task.ToDatabase(task)
		if err := tx.CreateTask(ctx, &dbTask); err != nil {
			return err
		}
		created = s.mapper.Task.FromDatabase(dbTask)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *clientServiceImpl) ListTasks(ctx context.Context, userID, projectID int64) ([]*domain.Task, error) {
	if _, err := s.repo.GetProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	dbTasks, err := s.repo.ListTasks(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	tasks := s.mapper.Task.FromDatabaseSlice(dbTasks)
	result := make([]*domain.Task, len(tasks))
	for i := range tasks {
		result[i] = &tasks[i]
	}
	return result, nil
}
