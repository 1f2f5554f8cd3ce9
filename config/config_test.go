package config

import (
	"log/slog"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "svc")
	t.Setenv("DB_NAME", "summaries")
	t.Setenv("REDIS_URI", "redis.internal:6380")
	t.Setenv("MODEL_API_URL", "http://model.internal:11434/api/generate")
	t.Setenv("MODEL_NAME", "llama3")
	t.Setenv("MODEL_TIMEOUT", "5m")
	t.Setenv("PIPELINE_MAX_TOKENS", "4000")
	t.Setenv("PIPELINE_CHUNK_MAX_TOKENS", "1000")
	t.Setenv("PIPELINE_CHUNK_OVERLAP", "100")
	t.Setenv("PIPELINE_MAX_IN_FLIGHT", "3")
	t.Setenv("FETCHER_TIMEOUT", "20s")
	t.Setenv("FETCHER_USER_AGENT", "custom-agent/2.0")
	t.Setenv("FETCHER_MAX_BODY_BYTES", "1048576")
	t.Setenv("FETCHER_CACHE_TTL", "0")
	t.Setenv("REGISTRY_RETENTION", "1h")
	t.Setenv("REGISTRY_SWEEP_INTERVAL", "30s")
	t.Setenv("OBSERVABILITY_METRICS_ENABLED", "true")
	t.Setenv("OBSERVABILITY_METRICS_STATSD_ADDRESS", "statsd:8125")
	t.Setenv("LOG_LEVEL", "debug")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("expected HTTP addr :9090, got %q", cfg.HTTP.Addr)
	}
	if cfg.Postgres.Host != "db.internal" || cfg.Postgres.Port != 5433 {
		t.Errorf("unexpected postgres config: %+v", cfg.Postgres)
	}
	if cfg.Postgres.User != "svc" || cfg.Postgres.Name != "summaries" {
		t.Errorf("unexpected postgres identity: %+v", cfg.Postgres)
	}
	if cfg.Redis.URI != "redis.internal:6380" {
		t.Errorf("expected redis URI redis.internal:6380, got %q", cfg.Redis.URI)
	}
	if cfg.Model.APIURL != "http://model.internal:11434/api/generate" {
		t.Errorf("unexpected model api url %q", cfg.Model.APIURL)
	}
	if cfg.Model.Name != "llama3" || cfg.Model.Timeout != 5*time.Minute {
		t.Errorf("unexpected model config: %+v", cfg.Model)
	}
	if cfg.Pipeline.MaxTokens != 4000 || cfg.Pipeline.ChunkMaxTokens != 1000 {
		t.Errorf("unexpected pipeline thresholds: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.ChunkOverlap != 100 || cfg.Pipeline.MaxInFlight != 3 {
		t.Errorf("unexpected pipeline limits: %+v", cfg.Pipeline)
	}
	if cfg.Fetcher.Timeout != 20*time.Second || cfg.Fetcher.UserAgent != "custom-agent/2.0" {
		t.Errorf("unexpected fetcher config: %+v", cfg.Fetcher)
	}
	if cfg.Fetcher.MaxBodyBytes != 1048576 {
		t.Errorf("expected max body bytes 1048576, got %d", cfg.Fetcher.MaxBodyBytes)
	}
	if cfg.Fetcher.CacheTTL != 0 {
		t.Errorf("expected cache ttl 0 (disabled), got %v", cfg.Fetcher.CacheTTL)
	}
	if cfg.Registry.Retention != time.Hour || cfg.Registry.SweepInterval != 30*time.Second {
		t.Errorf("unexpected registry config: %+v", cfg.Registry)
	}
	if !cfg.Observability.Metrics.IsEnabled() {
		t.Error("expected metrics to be enabled")
	}
	if cfg.Observability.Metrics.StatsdAddress != "statsd:8125" {
		t.Errorf("unexpected statsd address %q", cfg.Observability.Metrics.StatsdAddress)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.Log.Level)
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.HTTP.Addr)
	}
	if cfg.Model.Name != "mistral" || cfg.Model.Timeout != 10*time.Minute {
		t.Errorf("unexpected model defaults: %+v", cfg.Model)
	}
	if cfg.Pipeline.MaxTokens != 6000 || cfg.Pipeline.ChunkMaxTokens != 1500 {
		t.Errorf("unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.ChunkOverlap != 200 || cfg.Pipeline.MaxInFlight != 5 {
		t.Errorf("unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if cfg.Fetcher.Timeout != 10*time.Second || cfg.Fetcher.CacheTTL != 15*time.Minute {
		t.Errorf("unexpected fetcher defaults: %+v", cfg.Fetcher)
	}
	if cfg.Fetcher.MaxBodyBytes != 5242880 {
		t.Errorf("expected default max body bytes 5242880, got %d", cfg.Fetcher.MaxBodyBytes)
	}
	if cfg.Registry.Retention != 30*time.Minute || cfg.Registry.SweepInterval != time.Minute {
		t.Errorf("unexpected registry defaults: %+v", cfg.Registry)
	}
	if cfg.Observability.Metrics.Enabled {
		t.Error("expected metrics to default to disabled")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Log.Level)
	}
	if !cfg.Postgres.RunMigrationsOnStart {
		t.Error("expected migrations on start to default to true")
	}
}

func TestPipelineConfig_Sanitize(t *testing.T) {
	cfg := PipelineConfig{
		MaxTokens:      0,
		ChunkMaxTokens: -5,
		ChunkOverlap:   -1,
		MaxInFlight:    0,
	}

	cfg.Sanitize()

	if cfg.MaxTokens < 1 {
		t.Errorf("expected max tokens to be clamped, got %d", cfg.MaxTokens)
	}
	if cfg.ChunkMaxTokens < 1 {
		t.Errorf("expected chunk budget to be clamped, got %d", cfg.ChunkMaxTokens)
	}
	if cfg.ChunkOverlap != 0 {
		t.Errorf("expected overlap to be clamped to 0, got %d", cfg.ChunkOverlap)
	}
	if cfg.MaxInFlight != 1 {
		t.Errorf("expected max in-flight to be clamped to 1, got %d", cfg.MaxInFlight)
	}
}

func TestPipelineConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		overlap     int
		chunkBudget int
		expectError bool
	}{
		{"overlap below budget", 200, 1500, false},
		{"zero overlap", 0, 1500, false},
		{"overlap equals budget", 1500, 1500, true},
		{"overlap above budget", 2000, 1500, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := PipelineConfig{
				MaxTokens:      6000,
				ChunkMaxTokens: tt.chunkBudget,
				ChunkOverlap:   tt.overlap,
				MaxInFlight:    5,
			}

			err := cfg.Validate()

			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestModelConfig_Sanitize(t *testing.T) {
	cfg := ModelConfig{
		APIURL:  "  http://localhost:11434/api/generate  ",
		Name:    " mistral ",
		Timeout: -time.Second,
	}

	cfg.Sanitize()

	if cfg.APIURL != "http://localhost:11434/api/generate" {
		t.Errorf("expected api url to be trimmed, got %q", cfg.APIURL)
	}
	if cfg.Name != "mistral" {
		t.Errorf("expected name to be trimmed, got %q", cfg.Name)
	}
	if cfg.Timeout != 10*time.Minute {
		t.Errorf("expected timeout to fall back to default, got %v", cfg.Timeout)
	}
}

func TestFetcherConfig_Sanitize(t *testing.T) {
	cfg := FetcherConfig{
		Timeout:      0,
		UserAgent:    "  agent  ",
		MaxBodyBytes: 0,
		CacheTTL:     -time.Minute,
	}

	cfg.Sanitize()

	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected timeout default, got %v", cfg.Timeout)
	}
	if cfg.UserAgent != "agent" {
		t.Errorf("expected user agent to be trimmed, got %q", cfg.UserAgent)
	}
	if cfg.MaxBodyBytes != 5*1024*1024 {
		t.Errorf("expected max body default, got %d", cfg.MaxBodyBytes)
	}
	if cfg.CacheTTL != 0 {
		t.Errorf("expected negative cache ttl to clamp to 0, got %v", cfg.CacheTTL)
	}
}

func TestRegistryConfig_Sanitize(t *testing.T) {
	cfg := RegistryConfig{Retention: 0, SweepInterval: -time.Second}

	cfg.Sanitize()

	if cfg.Retention != 30*time.Minute {
		t.Errorf("expected retention default, got %v", cfg.Retention)
	}
	if cfg.SweepInterval != time.Minute {
		t.Errorf("expected sweep interval default, got %v", cfg.SweepInterval)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}

func TestLogConfig_Sanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "DEBUG", "debug"},
		{"trims", " warn ", "warn"},
		{"unknown falls back", "verbose", "info"},
		{"empty falls back", "", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LogConfig{Level: tt.input}
			cfg.Sanitize()
			if cfg.Level != tt.expected {
				t.Errorf("expected level %q, got %q", tt.expected, cfg.Level)
			}
		})
	}
}

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"anything", slog.LevelInfo},
	}

	for _, tt := range tests {
		cfg := LogConfig{Level: tt.level}
		if got := cfg.SlogLevel(); got != tt.expected {
			t.Errorf("level %q: expected %v, got %v", tt.level, tt.expected, got)
		}
	}
}

func TestAppConfig_Validate(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}

	cfg.Pipeline.ChunkOverlap = cfg.Pipeline.ChunkMaxTokens
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when overlap reaches the chunk budget")
	}
}
