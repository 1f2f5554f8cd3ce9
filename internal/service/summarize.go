package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/skimworks/skim-api/internal/core"
	"github.com/skimworks/skim-api/internal/domain/job"
	"github.com/skimworks/skim-api/internal/domain/model"
	apperrors "github.com/skimworks/skim-api/internal/errors"
	"github.com/skimworks/skim-api/internal/observability/metrics"
	"github.com/skimworks/skim-api/internal/observability/statsd"
	"github.com/skimworks/skim-api/internal/service/pipeline"
)

// SummarizeServiceOptions groups dependencies for SummarizeService.
type SummarizeServiceOptions struct {
	Registry *job.Registry          // Required: admission gate and status table
	Runner   *pipeline.Runner       // Required: bounded executor for admitted jobs
	Engine   *pipeline.Engine       // Required: per-job summarization pipeline
	Store    core.SummaryRepository // Required: persisted summary records
	Logger   *slog.Logger           // Optional: structured logger
	Metrics  statsd.Sink            // Optional: metrics sink (StatsD-compatible)
}

// SummarizeService provides the submission and polling surface of the
// summarizer.
//
// This service manages:
// - URL validation and admission into the bounded in-flight set
// - Spawning admitted jobs onto the task runner
// - Status polling against the in-memory registry
// - Lookups and maintenance of persisted summary records.
type SummarizeService struct {
	registry *job.Registry
	runner   *pipeline.Runner
	engine   *pipeline.Engine
	store    core.SummaryRepository
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewSummarizeService constructs a new SummarizeService.
func NewSummarizeService(opts SummarizeServiceOptions) (*SummarizeService, error) {
	if opts.Registry == nil {
		return nil, errors.New("Registry is required")
	}
	if opts.Runner == nil {
		return nil, errors.New("Runner is required")
	}
	if opts.Engine == nil {
		return nil, errors.New("Engine is required")
	}
	if opts.Store == nil {
		return nil, errors.New("SummaryRepository is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SummarizeService{
		registry: opts.Registry,
		runner:   opts.Runner,
		engine:   opts.Engine,
		store:    opts.Store,
		logger:   logger.With("component", "summarize_service"),
		metrics:  opts.Metrics,
	}, nil
}

// Submit validates and admits one summarization request. On admission the job
// runs in the background and the returned id is the polling handle. Rejected
// submissions record nothing: the caller may retry immediately.
func (s *SummarizeService) Submit(ctx context.Context, req *model.SubmitSummaryRequest) (*model.SubmitSummaryResponse, error) {
	if err := req.Validate(); err != nil {
		metrics.EmitSubmission(s.metrics, metrics.SubmissionInvalid)
		return nil, apperrors.ValidationField("url", err.Error())
	}
	url := strings.TrimSpace(req.URL)

	s.logger.InfoContext(ctx, "new summarize request", "url", url)
	s.logReplacedRecord(ctx, url)

	j, err := s.registry.Admit(url)
	if err != nil {
		return nil, s.mapAdmitError(ctx, url, err)
	}

	// Best effort: the terminal upsert at the end of the pipeline writes the
	// authoritative row, so a failed pre-write never blocks the job.
	if _, err := s.store.Upsert(ctx, core.UpsertSummaryParams{
		URL:    url,
		Status: model.JobStatusInProgress,
	}); err != nil {
		s.logger.WarnContext(ctx, "in_progress record write failed", "url", url, "error", err)
	}

	if err := s.runner.Go(j.ID, func(taskCtx context.Context) {
		s.engine.Process(taskCtx, j)
	}); err != nil {
		// The runner is sized to the registry capacity, so a rejection here
		// means shutdown is underway. Release the slot and turn the submission
		// away as if the gate were full.
		s.logger.WarnContext(ctx, "task runner rejected admitted job", "request_id", j.ID, "error", err)
		if serr := s.registry.SetError(j.ID, "executor unavailable"); serr != nil {
			s.logger.ErrorContext(ctx, "status transition rejected", "request_id", j.ID, "error", serr)
		}
		s.registry.Complete(j.ID)
		metrics.EmitSubmission(s.metrics, metrics.SubmissionRejectedCapacity)
		return nil, apperrors.QueueFull("Queue is full. Try again later.")
	}

	metrics.EmitSubmission(s.metrics, metrics.SubmissionAdmitted)
	s.logger.InfoContext(ctx, "job admitted", "request_id", j.ID, "url", url, "in_flight", s.registry.InFlight())

	return &model.SubmitSummaryResponse{RequestID: j.ID}, nil
}

// logReplacedRecord notes when a submission is about to overwrite a
// previously successful record. Lookup failures are ignored: the record table
// is not on the admission path.
func (s *SummarizeService) logReplacedRecord(ctx context.Context, url string) {
	existing, err := s.store.GetByURL(ctx, url)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.WarnContext(ctx, "existing record lookup failed", "url", url, "error", err)
		}
		return
	}
	if existing != nil && existing.Status == model.JobStatusSuccess {
		s.logger.InfoContext(ctx, "url already successfully processed, result will be replaced", "url", url)
	}
}

func (s *SummarizeService) mapAdmitError(ctx context.Context, url string, err error) error {
	switch {
	case errors.Is(err, job.ErrQueueFull):
		s.logger.WarnContext(ctx, "queue full, submission rejected", "url", url)
		metrics.EmitSubmission(s.metrics, metrics.SubmissionRejectedCapacity)
		return apperrors.QueueFull("Queue is full. Try again later.")
	case errors.Is(err, job.ErrURLInFlight):
		s.logger.InfoContext(ctx, "url already in flight, submission rejected", "url", url)
		metrics.EmitSubmission(s.metrics, metrics.SubmissionRejectedConflict)
		return apperrors.Conflict("URL is already being processed.")
	default:
		return fmt.Errorf("admit job: %w", err)
	}
}

// Status reports the job tracked under id. Result is attached only on
// success, Error only on failure.
func (s *SummarizeService) Status(ctx context.Context, id string) (*model.JobStatusResponse, error) {
	j, ok := s.registry.Get(id)
	if !ok {
		return nil, apperrors.NotFound("Request not found")
	}

	resp := &model.JobStatusResponse{Status: j.Status}
	switch j.Status {
	case model.JobStatusSuccess:
		resp.Result = j.Result
	case model.JobStatusFailure:
		resp.Error = j.Error
	}

	s.logger.DebugContext(ctx, "status polled", "request_id", id, "status", j.Status)
	return resp, nil
}

// LookupByURL returns the persisted record for url, including records from
// earlier runs of the service.
func (s *SummarizeService) LookupByURL(ctx context.Context, url string) (*model.SummaryRecord, error) {
	record, err := s.store.GetByURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("get summary by url: %w", err)
	}
	return record, nil
}

// List returns persisted summary records, newest first. Pagination defaults
// are normalized here to avoid drift across layers.
func (s *SummarizeService) List(ctx context.Context, opts core.ListSummariesOptions) ([]*model.SummaryRecord, error) {
	p := normalizePagination(opts.Limit, opts.Offset)
	opts.Limit = p.Limit
	opts.Offset = p.Offset

	records, err := s.store.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	return records, nil
}

// Purge deletes persisted records not updated within maxAge and returns the
// number removed.
func (s *SummarizeService) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, apperrors.Validation("max age must be positive")
	}

	count, err := s.store.DeleteOlderThan(ctx, maxAge)
	if err != nil {
		return 0, fmt.Errorf("purge summaries: %w", err)
	}

	if count > 0 {
		s.logger.InfoContext(ctx, "purged old summary records", "count", count, "max_age", maxAge)
	}
	return count, nil
}

// InFlight reports how many jobs are admitted but not yet completed.
func (s *SummarizeService) InFlight() int {
	return s.registry.InFlight()
}

// paginationParams holds normalized pagination parameters.
type paginationParams struct {
	Limit  int
	Offset int
}

// normalizePagination clamps pagination parameters to safe defaults.
// Default limit: 50, max limit: 1000, min offset: 0.
func normalizePagination(limit, offset int) paginationParams {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return paginationParams{Limit: limit, Offset: offset}
}
