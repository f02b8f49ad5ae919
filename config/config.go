// Package config defines the todo application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "todo.yaml"

// Config is the top-level configuration.
type Config struct {
	DBPath string     `json:"db_path" yaml:"db_path" validate:"required"`
	Log    LogConfig  `json:"log" yaml:"log"`
	Edit   EditConfig `json:"edit" yaml:"edit"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level      string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format     string `json:"format" yaml:"format" validate:"oneof=text json"`
	File       string `json:"file,omitempty" yaml:"file"` // empty logs to stderr
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb" validate:"min=0"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" validate:"min=0"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days" validate:"min=0"`
	Compress   bool   `json:"compress" yaml:"compress"`
}

// EditConfig controls what EditTask may change.
type EditConfig struct {
	AllowTimestamps bool `json:"allow_timestamps" yaml:"allow_timestamps"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DBPath: "tasks.db",
		Log: LogConfig{
			Level:      "warn",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and
// TODO_* environment variables, in that order of precedence. A .env file in
// the working directory is loaded first. A missing file is only an error
// when path is not DefaultPath.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional

	if path == "" {
		path = DefaultPath
	}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TODO_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("TODO_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TODO_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("TODO_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("TODO_ALLOW_TIMESTAMP_EDIT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TODO_ALLOW_TIMESTAMP_EDIT: %w", err)
		}
		c.Edit.AllowTimestamps = b
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
