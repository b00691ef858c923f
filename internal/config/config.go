package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"

	"github.com/bridgeos/govern/internal/logging"
)

// Config is the process configuration read from the environment. CLI flags
// override individual fields per command.
type Config struct {
	DBPath        string `env:"GOVERN_DB" envDefault:"govern.db"`
	ListenAddr    string `env:"GOVERN_LISTEN_ADDR" envDefault:":50071"`
	LogLevel      string `env:"GOVERN_LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"GOVERN_LOG_FORMAT" envDefault:"text"`
	AppName       string `env:"GOVERN_APP_NAME" envDefault:"govern"`
	Build         string `env:"GOVERN_BUILD" envDefault:"dev"`
	ReplayWorkers int    `env:"GOVERN_REPLAY_WORKERS" envDefault:"4"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown log settings and a non-positive worker count.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("GOVERN_LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("GOVERN_LOG_FORMAT: unknown format %q", c.LogFormat)
	}
	if c.ReplayWorkers < 1 {
		return fmt.Errorf("GOVERN_REPLAY_WORKERS: must be at least 1, got %d", c.ReplayWorkers)
	}
	return nil
}

// Level returns the parsed log level. Validate must have passed.
func (c Config) Level() slog.Level {
	l, _ := logging.ParseLevel(c.LogLevel)
	return l
}
