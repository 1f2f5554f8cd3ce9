package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/skimworks/skim-api/internal/domain/job"
	"github.com/skimworks/skim-api/internal/observability/metrics"
	"github.com/skimworks/skim-api/internal/observability/statsd"
)

// JanitorServiceOptions groups dependencies for JanitorService.
type JanitorServiceOptions struct {
	Registry *job.Registry // Required: registry whose terminal entries are swept
	Interval time.Duration // Required: sweep interval
	Logger   *slog.Logger  // Optional: structured logger
	Metrics  statsd.Sink   // Optional: metrics sink (StatsD-compatible)
}

// JanitorService evicts finished registry entries once their retention window
// has elapsed, keeping the in-memory status table bounded. In-flight jobs are
// never touched.
type JanitorService struct {
	registry *job.Registry
	interval time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewJanitorService constructs a new JanitorService.
func NewJanitorService(opts JanitorServiceOptions) (*JanitorService, error) {
	if opts.Registry == nil {
		return nil, errors.New("Registry is required")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("Interval must be positive")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &JanitorService{
		registry: opts.Registry,
		interval: opts.Interval,
		logger:   logger.With("component", "janitor_service"),
		metrics:  opts.Metrics,
	}, nil
}

// Run starts the sweep loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *JanitorService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting janitor", "interval", s.interval)

	// Jitter so multiple instances restarted together don't sweep in lockstep.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "janitor stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// waitWithJitter adds a random delay up to 10% of the interval.
func (s *JanitorService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
		// Graceful shutdown during jitter
	}
}

func (s *JanitorService) sweep(ctx context.Context) {
	evicted := s.registry.Sweep()
	metrics.EmitSweep(s.metrics, evicted)

	if evicted > 0 {
		s.logger.InfoContext(ctx, "evicted finished registry entries",
			"count", evicted,
			"tracked", s.registry.Tracked(),
		)
	}
}
