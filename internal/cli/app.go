package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"freelancer/internal/config"
	"freelancer/internal/localtimer"
	"freelancer/internal/logging"
	"freelancer/internal/repository/sqlite"
	"freelancer/internal/services"
)

// App holds everything a command needs once configuration is loaded
type App struct {
	config   *config.Config
	logger   *slog.Logger
	repo     sqlite.Repository
	services *services.ServiceContainer
	timers   *localtimer.Store
	clock    services.Clock
	out      io.Writer
}

// AppFactory builds the App for a loaded configuration
type AppFactory func(ctx context.Context, cfg *config.Config) (*App, error)

// NewApp wires the services and the local timer store around an open repository
func NewApp(cfg *config.Config, repo sqlite.Repository, logger *slog.Logger, clock services.Clock, out io.Writer) *App {
	if clock == nil {
		clock = services.SystemClock{}
	}
	return &App{
		config:   cfg,
		logger:   logger,
		repo:     repo,
		services: services.NewServiceContainer(repo, cfg, logger, clock),
		timers:   localtimer.NewStore(cfg.GetTimerStatePath(), cfg.Timer.StaleAfter),
		clock:    clock,
		out:      out,
	}
}

// DefaultAppFactory opens the configured database and logs to stderr
func DefaultAppFactory(out io.Writer) AppFactory {
	return func(ctx context.Context, cfg *config.Config) (*App, error) {
		logger := logging.New(cfg.Logging)
		repo, err := config.CreateRepository(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Debug("database opened", "path", cfg.GetDatabasePath())
		return NewApp(cfg, repo, logger, services.SystemClock{}, out), nil
	}
}

// Close releases the database
func (a *App) Close() error {
	if a.repo == nil {
		return nil
	}
	return a.repo.Close()
}

// userID is the account the command line acts for
func (a *App) userID() int64 {
	return a.config.CLI.UserID
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...interface{}) {
	fmt.Fprintln(a.out, args...)
}

// formatMinutes renders whole minutes as "1h 30m"
func formatMinutes(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// formatClock renders a duration as HH:MM:SS, the ticking timer display
func formatClock(d time.Duration) string {
	seconds := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60)
}
