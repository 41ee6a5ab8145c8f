package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"freelancer/internal/config"
	"freelancer/internal/domain"
	"freelancer/internal/logging"
	"freelancer/internal/repository/sqlite"
	"freelancer/internal/validation"
)

// testClock is a settable clock shared by the services under test
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testEpoch = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	ctx      context.Context
	repo     *sqlite.SQLiteRepository
	clock    *testClock
	services *ServiceContainer
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	clock := newTestClock(testEpoch)
	return &testEnv{
		ctx:      context.Background(),
		repo:     repo,
		clock:    clock,
		services: NewServiceContainer(repo, config.NewConfig(), logging.Discard(), clock),
	}
}

// account is a user with one client and one project at 100/h
type account struct {
	user    *domain.User
	client  *domain.Client
	project *domain.Project
}

func (env *testEnv) seedAccount(t *testing.T, email string) account {
	t.Helper()
	user, err := env.services.Clients.CreateUser(env.ctx, email, "Test User")
	require.NoError(t, err)

	client, err := env.services.Clients.CreateClient(env.ctx, user.ID, validation.ClientInput{Name: "Acme", Email: "billing@acme.test"})
	require.NoError(t, err)

	rate := "100"
	project, err := env.services.Clients.CreateProject(env.ctx, user.ID, validation.ProjectInput{
		ClientID:   client.ID,
		Name:       "Website",
		HourlyRate: &rate,
	})
	require.NoError(t, err)

	return account{user: user, client: client, project: project}
}

// logEntry records a stopped manual entry of the given length, starting at start
func (env *testEnv) logEntry(t *testing.T, acc account, start time.Time, length time.Duration) *domain.TimeEntry {
	t.Helper()
	end := start.Add(length)
	entry, err := env.services.TimeEntries.Create(env.ctx, acc.user.ID, validation.TimeEntryInput{
		ProjectID:   acc.project.ID,
		StartTime:   &start,
		EndTime:     &end,
		Description: "work",
	})
	require.NoError(t, err)
	return entry
}

func stringPtr(s string) *string { return &s }

func int64Ptr(i int64) *int64 { return &i }

func boolPtr(b bool) *bool { return &b }
