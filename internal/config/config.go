package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"golang.org/x/text/currency"
)

// Config holds all configuration options for the freelancer application
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Timer      TimerConfig      `mapstructure:"timer" yaml:"timer"`
	Invoice    InvoiceConfig    `mapstructure:"invoice" yaml:"invoice"`
	Validation ValidationConfig `mapstructure:"validation" yaml:"validation"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	CLI        CLIConfig        `mapstructure:"cli" yaml:"cli"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path         string        `mapstructure:"path" yaml:"path"`
	QueryTimeout time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`
	BusyTimeout  time.Duration `mapstructure:"busy_timeout" yaml:"busy_timeout"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// TimerConfig holds timer configuration. StaleAfter applies to the local
// mirror; AbandonAfter to the server-side sweep job.
type TimerConfig struct {
	StateFile    string        `mapstructure:"state_file" yaml:"state_file"`
	StaleAfter   time.Duration `mapstructure:"stale_after" yaml:"stale_after"`
	AbandonAfter time.Duration `mapstructure:"abandon_after" yaml:"abandon_after"`
}

// InvoiceConfig holds invoicing defaults. TaxRate is a decimal fraction, "0.2" for 20%.
type InvoiceConfig struct {
	TaxRate         string `mapstructure:"tax_rate" yaml:"tax_rate"`
	DefaultCurrency string `mapstructure:"default_currency" yaml:"default_currency"`
}

// ValidationConfig holds validation rules configuration
type ValidationConfig struct {
	NameMaxLength        int           `mapstructure:"name_max_length" yaml:"name_max_length"`
	DescriptionMaxLength int           `mapstructure:"description_max_length" yaml:"description_max_length"`
	MaxEntryDuration     time.Duration `mapstructure:"max_entry_duration" yaml:"max_entry_duration"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// CLIConfig holds defaults for the command line client
type CLIConfig struct {
	UserID int64 `mapstructure:"user_id" yaml:"user_id"`
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".freelancer")

	return &Config{
		Database: DatabaseConfig{
			Path:         filepath.Join(dataDir, "freelancer.db"),
			QueryTimeout: 10 * time.Second,
			BusyTimeout:  5 * time.Second,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Timer: TimerConfig{
			StateFile:    filepath.Join(dataDir, "timer.json"),
			StaleAfter:   24 * time.Hour,
			AbandonAfter: 24 * time.Hour,
		},
		Invoice: InvoiceConfig{
			TaxRate:         "0",
			DefaultCurrency: "USD",
		},
		Validation: ValidationConfig{
			NameMaxLength:        255,
			DescriptionMaxLength: 2000,
			MaxEntryDuration:     24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		CLI: CLIConfig{
			UserID: 1,
		},
	}
}

// GetDatabasePath returns the database path with a leading ~ expanded
func (c *Config) GetDatabasePath() string {
	return expandHome(c.Database.Path)
}

// GetTimerStatePath returns the local timer state file path
func (c *Config) GetTimerStatePath() string {
	return expandHome(c.Timer.StateFile)
}

// GetQueryTimeout returns the database query timeout
func (c *Config) GetQueryTimeout() time.Duration {
	return c.Database.QueryTimeout
}

// Validate validates the configuration and returns any errors
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return &ConfigError{Field: "database.path", Message: "database path cannot be empty"}
	}
	if c.Database.QueryTimeout <= 0 {
		return &ConfigError{Field: "database.query_timeout", Message: "query timeout must be positive"}
	}
	if c.Database.BusyTimeout < 0 {
		return &ConfigError{Field: "database.busy_timeout", Message: "busy timeout cannot be negative"}
	}

	if c.Server.Addr == "" {
		return &ConfigError{Field: "server.addr", Message: "listen address cannot be empty"}
	}
	if c.Server.ShutdownTimeout <= 0 {
		return &ConfigError{Field: "server.shutdown_timeout", Message: "shutdown timeout must be positive"}
	}

	if c.Timer.StateFile == "" {
		return &ConfigError{Field: "timer.state_file", Message: "timer state file cannot be empty"}
	}
	if c.Timer.StaleAfter <= 0 {
		return &ConfigError{Field: "timer.stale_after", Message: "stale threshold must be positive"}
	}
	if c.Timer.AbandonAfter <= 0 {
		return &ConfigError{Field: "timer.abandon_after", Message: "abandon threshold must be positive"}
	}

	rate, _, err := apd.NewFromString(c.Invoice.TaxRate)
	if err != nil || rate.Form != apd.Finite {
		return &ConfigError{Field: "invoice.tax_rate", Message: "tax rate must be a decimal number"}
	}
	if rate.Sign() < 0 || rate.Cmp(apd.New(1, 0)) > 0 {
		return &ConfigError{Field: "invoice.tax_rate", Message: "tax rate must be between 0 and 1"}
	}
	if _, err := currency.ParseISO(c.Invoice.DefaultCurrency); err != nil {
		return &ConfigError{Field: "invoice.default_currency", Message: "default currency must be an ISO 4217 code"}
	}

	if c.Validation.NameMaxLength < 1 {
		return &ConfigError{Field: "validation.name_max_length", Message: "name maximum length must be at least 1"}
	}
	if c.Validation.DescriptionMaxLength < 1 {
		return &ConfigError{Field: "validation.description_max_length", Message: "description maximum length must be at least 1"}
	}
	if c.Validation.MaxEntryDuration <= 0 {
		return &ConfigError{Field: "validation.max_entry_duration", Message: "max entry duration must be positive"}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return &ConfigError{Field: "logging.level", Message: "log level must be one of debug, info, warn, error"}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "log format must be text or json"}
	}

	if c.CLI.UserID <= 0 {
		return &ConfigError{Field: "cli.user_id", Message: "user id must be positive"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
