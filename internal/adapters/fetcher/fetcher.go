// Package fetcher implements the article fetcher port: HTTP retrieval,
// readability-style extraction, and the article validity check, with an
// optional cache in front of the network.
package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/skimworks/skim-api/internal/core"
	apperrors "github.com/skimworks/skim-api/internal/errors"
)

// ErrGeneratorRequired indicates a fetcher cannot be constructed without the
// model client backing the secondary validity check.
var ErrGeneratorRequired = errors.New("fetcher generator is required")

const (
	// DefaultUserAgent identifies the service to origin servers.
	DefaultUserAgent = "skim-api/1.0 (article summarizer)"
	// defaultTimeout bounds one page download.
	defaultTimeout = 10 * time.Second
	// defaultMaxBodyBytes caps how much of a response is read. Pages larger
	// than this are truncated, not rejected.
	defaultMaxBodyBytes = 5 << 20

	cacheKeyPrefix = "skim:fetcher:article:"
)

// Config captures runtime configuration for the article fetcher.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64

	// CacheTTL enables the content cache when positive and Cache is set.
	CacheTTL time.Duration

	Client    *http.Client
	Generator core.Generator
	Cache     core.CacheRepository
	Logger    *slog.Logger
}

// Fetcher downloads a page, extracts its article text, and verifies the
// result looks like a genuine article before handing it to the pipeline.
type Fetcher struct {
	userAgent    string
	maxBodyBytes int64
	cacheTTL     time.Duration
	client       *http.Client
	gen          core.Generator
	cache        core.CacheRepository
	logger       *slog.Logger
}

var _ core.ArticleFetcher = (*Fetcher)(nil)

// New constructs a Fetcher. The generator is required; it backs the
// model-based validity check that runs when the heuristic rejects a page.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Generator == nil {
		return nil, ErrGeneratorRequired
	}

	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		userAgent:    ua,
		maxBodyBytes: maxBody,
		cacheTTL:     cfg.CacheTTL,
		client:       hc,
		gen:          cfg.Generator,
		cache:        cfg.Cache,
		logger:       logger,
	}, nil
}

// Fetch returns the cleaned article text behind url. Network and status
// problems surface as fetch errors; pages that pass the download but fail
// both validity checks surface as content rejections.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if text, ok := f.cachedText(ctx, url); ok {
		return text, nil
	}

	html, err := f.download(ctx, url)
	if err != nil {
		return "", err
	}

	text := extractArticleText(html)
	if !isArticle(text) && !f.isArticleModel(ctx, text) {
		return "", apperrors.ContentRejected("The provided URL does not contain a valid article.")
	}

	f.storeText(ctx, url, text)
	return text, nil
}

func (f *Fetcher) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeFetchFailed, "create fetch request")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeFetchFailed, "fetch url")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return "", apperrors.FetchFailedf("fetch %s: status %s", url, resp.Status)
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if closeErr := resp.Body.Close(); closeErr != nil && readErr == nil {
		readErr = closeErr
	}
	if readErr != nil {
		return "", apperrors.Wrap(readErr, apperrors.ErrCodeFetchFailed, "read response body")
	}
	return string(body), nil
}

func (f *Fetcher) cachingEnabled() bool {
	return f.cache != nil && f.cacheTTL > 0
}

func (f *Fetcher) cachedText(ctx context.Context, url string) (string, bool) {
	if !f.cachingEnabled() {
		return "", false
	}
	data, err := f.cache.Get(ctx, CacheKey(url))
	if err != nil {
		f.logger.WarnContext(ctx, "article cache read failed", "error", err)
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// storeText fills the cache best effort; a cache write failure never fails
// the fetch.
func (f *Fetcher) storeText(ctx context.Context, url, text string) {
	if !f.cachingEnabled() {
		return
	}
	if err := f.cache.Set(ctx, CacheKey(url), []byte(text), f.cacheTTL); err != nil {
		f.logger.WarnContext(ctx, "article cache write failed", "error", err)
	}
}

// CacheKey returns the cache key holding the extracted article text for url.
// Exported so operator tooling can evict a single entry.
func CacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
