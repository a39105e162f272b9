// Package config loads budgetry settings from budgetry.toml and BUDGETRY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/aretw0/budgetry/internal/platform"
)

// FileName is the config file looked up in the vault root.
const FileName = "budgetry.toml"

// Config holds all budgetry settings. Environment variables win over the file.
type Config struct {
	Vault       string `toml:"vault" env:"BUDGETRY_VAULT"`
	Adapter     string `toml:"adapter" env:"BUDGETRY_ADAPTER"`
	SystemDir   string `toml:"system_dir,omitempty" env:"BUDGETRY_SYSTEM_DIR"`
	ReadOnly    bool   `toml:"read_only" env:"BUDGETRY_READ_ONLY"`
	Strict      bool   `toml:"strict" env:"BUDGETRY_STRICT"`
	LogLevel    string `toml:"log_level" env:"BUDGETRY_LOG_LEVEL"`
	EventBuffer int    `toml:"event_buffer,omitempty" env:"BUDGETRY_EVENT_BUFFER"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Vault:    ".",
		Adapter:  platform.AdapterFS,
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, the TOML file at path and the environment.
// An empty path falls back to FileName in the working directory, which may be absent.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = FileName
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the adapter name, log level and buffer size.
func (c Config) Validate() error {
	switch c.Adapter {
	case platform.AdapterFS, platform.AdapterSQLite:
	default:
		return fmt.Errorf("unknown adapter %q", c.Adapter)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.EventBuffer < 0 {
		return fmt.Errorf("event_buffer must not be negative")
	}
	return nil
}

// SlogLevel returns the configured log level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", s)
	}
	return level, nil
}

// Options translates the configuration into platform options.
func (c Config) Options() []platform.Option {
	opts := []platform.Option{
		platform.WithAdapter(c.Adapter),
		platform.WithReadOnly(c.ReadOnly),
		platform.WithStrict(c.Strict),
		platform.WithEventBuffer(c.EventBuffer),
	}
	if c.SystemDir != "" {
		opts = append(opts, platform.WithSystemDir(c.SystemDir))
	}
	return opts
}

// Save writes cfg as TOML to path.
func Save(path string, cfg Config) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
