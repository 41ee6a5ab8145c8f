package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"freelancer/internal/repository/sqlite"
)

// CreateRepository creates a repository instance using the configuration system
func CreateRepository(ctx context.Context, config *Config) (*sqlite.SQLiteRepository, error) {
	dbPath := config.GetDatabasePath()

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	repo, err := sqlite.Open(ctx, sqlite.Options{
		Path:         dbPath,
		BusyTimeout:  config.Database.BusyTimeout,
		QueryTimeout: config.Database.QueryTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return repo, nil
}

// CreateTestRepository creates an in-memory repository for testing
func CreateTestRepository() (*sqlite.SQLiteRepository, error) {
	repo, err := sqlite.New(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize test database: %w", err)
	}

	return repo, nil
}
