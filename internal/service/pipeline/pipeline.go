// Package pipeline implements the summarization pipeline: chunking,
// response parsing, result merging, and the orchestrating engine that drives
// one job from URL to terminal status.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/skimworks/skim-api/internal/core"
	"github.com/skimworks/skim-api/internal/domain/job"
	"github.com/skimworks/skim-api/internal/domain/model"
	apperrors "github.com/skimworks/skim-api/internal/errors"
	"github.com/skimworks/skim-api/internal/observability/metrics"
	"github.com/skimworks/skim-api/internal/observability/statsd"
)

// Path constants for logging and metric tagging.
const (
	pathDirect  = "direct"
	pathChunked = "chunked"
)

// EngineOptions configures the pipeline engine.
type EngineOptions struct {
	Registry  *job.Registry
	Fetcher   core.ArticleFetcher
	Generator core.Generator
	Tokenizer core.Tokenizer
	Chunker   *Chunker
	Merger    *Merger
	Store     core.SummaryRepository

	// MaxTokens is the prompt-token threshold above which a document is
	// chunked instead of summarized in one call.
	MaxTokens int

	Metrics statsd.Sink
	Logger  *slog.Logger
	Clock   func() time.Time
}

// Engine drives admitted jobs through fetch, summarize, merge, and persist.
// One Process call handles exactly one job; concurrent calls are independent.
type Engine struct {
	registry  *job.Registry
	fetcher   core.ArticleFetcher
	gen       core.Generator
	tok       core.Tokenizer
	chunker   *Chunker
	merger    *Merger
	store     core.SummaryRepository
	maxTokens int
	metrics   statsd.Sink
	logger    *slog.Logger
	now       func() time.Time
}

// NewEngine constructs an Engine.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Registry == nil {
		return nil, errors.New("Registry is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("ArticleFetcher is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("Generator is required")
	}
	if opts.Tokenizer == nil {
		return nil, errors.New("Tokenizer is required")
	}
	if opts.Chunker == nil {
		return nil, errors.New("Chunker is required")
	}
	if opts.Merger == nil {
		return nil, errors.New("Merger is required")
	}
	if opts.Store == nil {
		return nil, errors.New("SummaryRepository is required")
	}
	if opts.MaxTokens <= 0 {
		return nil, errors.New("MaxTokens must be positive")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &Engine{
		registry:  opts.Registry,
		fetcher:   opts.Fetcher,
		gen:       opts.Generator,
		tok:       opts.Tokenizer,
		chunker:   opts.Chunker,
		merger:    opts.Merger,
		store:     opts.Store,
		maxTokens: opts.MaxTokens,
		metrics:   opts.Metrics,
		logger:    logger,
		now:       now,
	}, nil
}

// Process drives one admitted job to a terminal status. It never returns an
// error: every outcome lands on the registry and in the store, and the job's
// capacity slot is released on every exit path, panics included.
func (e *Engine) Process(ctx context.Context, j model.Job) {
	logger := e.logger.With("job_id", j.ID, "url", j.URL)
	start := e.now()

	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(ctx, "job panicked", "panic", rec)
			if err := e.registry.SetError(j.ID, fmt.Sprintf("internal error: %v", rec)); err != nil {
				logger.ErrorContext(ctx, "status transition rejected", "error", err)
			}
		}
		e.registry.Complete(j.ID)
	}()

	logger.InfoContext(ctx, "job started")

	text, err := e.fetcher.Fetch(ctx, j.URL)
	if err != nil {
		e.fail(ctx, logger, j, start, "", err)
		return
	}

	prompt := buildSummaryPrompt(text)
	promptTokens := e.tok.Count(prompt)
	logger.InfoContext(ctx, "article fetched",
		"text_chars", len(text),
		"prompt_tokens", promptTokens,
	)

	path := pathDirect
	var result *model.SummaryResult
	if promptTokens > e.maxTokens {
		path = pathChunked
		result, err = e.summarizeChunked(ctx, logger, j.URL, text)
	} else {
		result, err = e.summarizeDirect(ctx, logger, j.URL, prompt)
	}
	if err != nil {
		e.fail(ctx, logger, j, start, path, err)
		return
	}

	duration := roundSeconds(e.now().Sub(start))
	if err := e.persistResult(ctx, j.URL, result, duration, promptTokens); err != nil {
		e.fail(ctx, logger, j, start, path, err)
		return
	}

	if err := e.registry.SetResult(j.ID, result); err != nil {
		logger.ErrorContext(ctx, "status transition rejected", "error", err)
	}
	metrics.EmitJobOutcome(e.metrics, metrics.JobMetric{
		Result:       metrics.ResultSuccess,
		Path:         path,
		Duration:     e.now().Sub(start),
		PromptTokens: promptTokens,
		ChunkCount:   result.ChunkCount,
	})
	logger.InfoContext(ctx, "job succeeded",
		"duration_seconds", duration,
		"chunk_count", result.ChunkCount,
	)
}

// summarizeDirect handles documents whose full prompt fits the token budget:
// one model call, one parse. An unparsable reply degrades the result to the
// raw text instead of failing the job.
func (e *Engine) summarizeDirect(ctx context.Context, logger *slog.Logger, url, prompt string) (*model.SummaryResult, error) {
	raw, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	parsed := ParseReply(raw)
	if parsed.Degraded() {
		logger.WarnContext(ctx, "model reply unparsable, keeping raw text")
		return &model.SummaryResult{URL: url, RawResponse: parsed.Raw, ParseError: parseFailureMessage}, nil
	}
	return &model.SummaryResult{URL: url, Summary: parsed.Summary, Tags: parsed.Tags}, nil
}

// summarizeChunked splits the document, summarizes every chunk, and merges
// the per-chunk results. A chunk whose reply cannot be parsed contributes
// nothing; a failed model call aborts the job.
func (e *Engine) summarizeChunked(ctx context.Context, logger *slog.Logger, url, text string) (*model.SummaryResult, error) {
	chunks := e.chunker.Split(text)
	logger.InfoContext(ctx, "document chunked", "chunk_count", len(chunks))

	summaries := make([]string, 0, len(chunks))
	tagLists := make([][]string, 0, len(chunks))
	for i, chunk := range chunks {
		raw, err := e.gen.Generate(ctx, buildSummaryPrompt(chunk))
		if err != nil {
			return nil, fmt.Errorf("summarize chunk %d/%d: %w", i+1, len(chunks), err)
		}
		parsed := ParseReply(raw)
		if parsed.Degraded() {
			logger.WarnContext(ctx, "chunk reply unparsable, skipping", "chunk", i+1)
			continue
		}
		summaries = append(summaries, parsed.Summary)
		tagLists = append(tagLists, parsed.Tags)
	}

	tags := e.merger.MergeTags(ctx, tagLists)
	summary := e.merger.MergeSummaries(ctx, summaries)

	return &model.SummaryResult{
		URL:        url,
		Summary:    summary,
		Tags:       tags,
		ChunkCount: len(chunks),
	}, nil
}

func (e *Engine) persistResult(ctx context.Context, url string, result *model.SummaryResult, duration float64, promptTokens int) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodePersistenceFailed, "encode result")
	}

	_, err = e.store.Upsert(ctx, core.UpsertSummaryParams{
		URL:             url,
		Status:          model.JobStatusSuccess,
		Result:          payload,
		DurationSeconds: &duration,
		TotalTokens:     &promptTokens,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodePersistenceFailed, "persist summary")
	}
	return nil
}

// fail records the terminal failure on the registry first, then writes the
// failure row best effort. The registry is authoritative for pollers; the
// store write may itself be the thing that failed.
func (e *Engine) fail(ctx context.Context, logger *slog.Logger, j model.Job, start time.Time, path string, cause error) {
	msg := cause.Error()
	if err := e.registry.SetError(j.ID, msg); err != nil {
		logger.ErrorContext(ctx, "status transition rejected", "error", err)
	}

	if _, err := e.store.Upsert(ctx, core.UpsertSummaryParams{
		URL:    j.URL,
		Status: model.JobStatusFailure,
		Error:  &msg,
	}); err != nil {
		logger.ErrorContext(ctx, "failure record write failed", "error", err)
	}

	metrics.EmitJobOutcome(e.metrics, metrics.JobMetric{
		Result:   metrics.ResultFailure,
		Path:     path,
		Duration: e.now().Sub(start),
		Err:      cause,
	})
	logger.ErrorContext(ctx, "job failed", "error", msg)
}

// roundSeconds renders an elapsed duration as seconds with two decimals.
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
