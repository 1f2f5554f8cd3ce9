package config

import (
	"strings"
	"time"
)

// FetcherConfig controls article retrieval.
type FetcherConfig struct {
	// Timeout bounds one page download, connection to last body byte.
	Timeout time.Duration `env:"FETCHER_TIMEOUT" envDefault:"10s"`

	// UserAgent overrides the fetcher's default identification string.
	UserAgent string `env:"FETCHER_USER_AGENT"`

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 `env:"FETCHER_MAX_BODY_BYTES" envDefault:"5242880"`

	// CacheTTL is how long extracted article text stays cached.
	// Zero disables the cache.
	CacheTTL time.Duration `env:"FETCHER_CACHE_TTL" envDefault:"15m"`
}

// Sanitize applies guardrails to fetcher configuration values.
func (f *FetcherConfig) Sanitize() {
	if f.Timeout <= 0 {
		f.Timeout = 10 * time.Second
	}
	f.UserAgent = strings.TrimSpace(f.UserAgent)
	if f.MaxBodyBytes < 1 {
		f.MaxBodyBytes = 5 * 1024 * 1024
	}
	if f.CacheTTL < 0 {
		f.CacheTTL = 0
	}
}
