package config

import (
	"log/slog"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Database and cache configuration
//   - http.go: HTTP server configuration
//   - model.go: Generation backend configuration
//   - pipeline.go: Pipeline and job registry configuration
//   - fetcher.go: Article fetcher configuration
//   - observability.go: Metrics configuration
type AppConfig struct {
	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Summarization configuration
	Model    ModelConfig
	Pipeline PipelineConfig
	Fetcher  FetcherConfig
	Registry RegistryConfig

	// Observability configuration
	Observability ObservabilityConfig

	// Logging configuration
	Log LogConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Model.Sanitize()
	c.Pipeline.Sanitize()
	c.Fetcher.Sanitize()
	c.Registry.Sanitize()
	c.Observability.Sanitize()
	c.Log.Sanitize()
}

// Validate rejects value combinations Sanitize cannot clamp into shape.
// Call it after Sanitize; a failure here should abort startup.
func (c *AppConfig) Validate() error {
	return c.Pipeline.Validate()
}

// LogConfig controls the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// Sanitize normalises the level name. Unknown levels fall back to info.
func (l *LogConfig) Sanitize() {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		l.Level = "info"
	}
}

// SlogLevel maps the configured name to its slog level.
func (l *LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
