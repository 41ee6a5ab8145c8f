package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable, e.g. FL_DATABASE_PATH.
const EnvPrefix = "FL"

// Loader handles loading configuration from multiple sources
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// WithConfigFile makes the loader read a YAML file between defaults and environment.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Load loads configuration using the cascading strategy:
// 1. Start with defaults
// 2. Override with the YAML config file, when given
// 3. Override with FL_* environment variables
// 4. Override with command line flags (see LoadWithOverrides)
func (l *Loader) Load() (*Config, error) {
	defaults := NewConfig()
	if err := l.registerDefaults(defaults); err != nil {
		return nil, err
	}

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
		l.v.SetConfigType("yaml")
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("reading config %s: %w", l.configFile, err)
			}
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// registerDefaults flattens the default config into viper keys, so every
// key is known to AutomaticEnv.
func (l *Loader) registerDefaults(defaults *Config) error {
	raw, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("encoding defaults: %w", err)
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("decoding defaults: %w", err)
	}
	setDefaults(l.v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for key, value := range tree {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			setDefaults(v, fullKey, nested)
			continue
		}
		v.SetDefault(fullKey, value)
	}
}

// LoadWithOverrides loads configuration and applies command line overrides
func (l *Loader) LoadWithOverrides(overrides *ConfigOverrides) (*Config, error) {
	config, err := l.Load()
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		l.applyOverrides(config, overrides)
	}

	// Re-validate after applying overrides
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ConfigOverrides holds command line flag overrides
type ConfigOverrides struct {
	DBPath         *string
	DBQueryTimeout *time.Duration
	ServerAddr     *string
	TimerStateFile *string
	LogLevel       *string
	LogFormat      *string
	UserID         *int64
}

// applyOverrides applies command line overrides to the configuration
func (l *Loader) applyOverrides(config *Config, overrides *ConfigOverrides) {
	if overrides.DBPath != nil {
		config.Database.Path = *overrides.DBPath
	}
	if overrides.DBQueryTimeout != nil {
		config.Database.QueryTimeout = *overrides.DBQueryTimeout
	}
	if overrides.ServerAddr != nil {
		config.Server.Addr = *overrides.ServerAddr
	}
	if overrides.TimerStateFile != nil {
		config.Timer.StateFile = *overrides.TimerStateFile
	}
	if overrides.LogLevel != nil {
		config.Logging.Level = *overrides.LogLevel
	}
	if overrides.LogFormat != nil {
		config.Logging.Format = *overrides.LogFormat
	}
	if overrides.UserID != nil {
		config.CLI.UserID = *overrides.UserID
	}
}

// ToYAML renders the effective configuration.
func (c *Config) ToYAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	return string(out), nil
}
