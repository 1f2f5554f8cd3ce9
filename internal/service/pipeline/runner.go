package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrInvalidRunnerCapacity indicates the runner capacity is not positive.
var ErrInvalidRunnerCapacity = errors.New("runner capacity must be positive")

// ErrRunnerClosed indicates the runner is draining and accepts no new tasks.
var ErrRunnerClosed = errors.New("runner is closed")

// ErrRunnerSaturated indicates all task slots are occupied.
var ErrRunnerSaturated = errors.New("runner is saturated")

// RunnerOptions configures the task runner.
type RunnerOptions struct {
	// Capacity bounds the number of concurrently running tasks.
	Capacity int
	// BaseContext is the context handed to every task. It deliberately does
	// not derive from any request context: an admitted job outlives the
	// submission that spawned it.
	BaseContext context.Context
	Logger      *slog.Logger
}

// Runner executes tasks on bounded, tracked goroutines. It is the execution
// half of admission control: the registry decides whether a job may exist,
// the runner decides where it runs and waits for stragglers at shutdown.
type Runner struct {
	base     context.Context
	logger   *slog.Logger
	sem      *semaphore.Weighted
	capacity int64
	active   atomic.Int64

	mu     sync.Mutex
	closed bool
}

// NewRunner constructs a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Capacity <= 0 {
		return nil, ErrInvalidRunnerCapacity
	}

	base := opts.BaseContext
	if base == nil {
		base = context.Background()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		base:     base,
		logger:   logger,
		sem:      semaphore.NewWeighted(int64(opts.Capacity)),
		capacity: int64(opts.Capacity),
	}, nil
}

// Go starts fn on a tracked goroutine. It never blocks: when the runner is
// draining or every slot is taken, the task is rejected immediately.
func (r *Runner) Go(name string, fn func(ctx context.Context)) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRunnerClosed
	}
	if !r.sem.TryAcquire(1) {
		r.mu.Unlock()
		return ErrRunnerSaturated
	}
	r.active.Add(1)
	r.mu.Unlock()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("task panicked", "task", name, "panic", rec)
			}
			// Decrement before releasing the slot so a completed Drain
			// observes zero active tasks.
			r.active.Add(-1)
			r.sem.Release(1)
		}()
		fn(r.base)
	}()
	return nil
}

// Active returns the number of tasks currently running.
func (r *Runner) Active() int {
	return int(r.active.Load())
}

// Drain stops accepting tasks and waits for the running ones. Tasks are never
// canceled; when ctx expires first the stragglers keep running and Drain
// reports the deadline error. Holding every slot proves no task is still
// running.
func (r *Runner) Drain(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	if err := r.sem.Acquire(ctx, r.capacity); err != nil {
		return fmt.Errorf("drain tasks: %w", err)
	}
	r.sem.Release(r.capacity)
	return nil
}
