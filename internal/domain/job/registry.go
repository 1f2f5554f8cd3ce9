// Package job provides the in-process coordination primitives for
// summarization jobs: admission control, status tracking, and slot release.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skimworks/skim-api/internal/domain/model"
)

// ErrInvalidCapacity indicates the configured in-flight capacity is not positive.
var ErrInvalidCapacity = errors.New("max in flight must be positive")

// ErrQueueFull indicates the registry is at capacity and cannot admit another job.
var ErrQueueFull = errors.New("job queue is full")

// ErrURLInFlight indicates the URL is already being processed by an admitted job.
var ErrURLInFlight = errors.New("url is already being processed")

// ErrJobNotFound indicates no job is tracked under the given id.
var ErrJobNotFound = errors.New("job not found")

// ErrJobFinished indicates the job already reached a terminal status.
var ErrJobFinished = errors.New("job already finished")

const defaultRetention = 30 * time.Minute

// RegistryOptions configure the behaviour of the registry.
type RegistryOptions struct {
	// MaxInFlight bounds how many jobs may be admitted but not yet completed.
	MaxInFlight int
	// Retention is how long terminal entries stay pollable before Sweep
	// evicts them. Defaults to 30 minutes.
	Retention time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Registry tracks every admitted job from admission to eviction. All methods
// are safe for concurrent use.
//
// Admission is atomic: the capacity check, the duplicate-URL check, and the
// insert happen under one lock, so the number of admitted-but-not-completed
// jobs never exceeds MaxInFlight and no two in-flight jobs share a URL.
type Registry struct {
	maxInFlight int
	retention   time.Duration
	now         func() time.Time

	mu        sync.Mutex
	jobs      map[string]*entry
	activeURL map[string]string
	inFlight  int
}

// entry wraps a tracked job with its slot-accounting state. released flips
// exactly once, when Complete frees the job's capacity slot.
type entry struct {
	job      model.Job
	released bool
}

// NewRegistry constructs a Registry with the provided options.
func NewRegistry(opts RegistryOptions) (*Registry, error) {
	if opts.MaxInFlight <= 0 {
		return nil, ErrInvalidCapacity
	}

	retention := opts.Retention
	if retention <= 0 {
		retention = defaultRetention
	}

	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &Registry{
		maxInFlight: opts.MaxInFlight,
		retention:   retention,
		now:         now,
		jobs:        make(map[string]*entry),
		activeURL:   make(map[string]string),
	}, nil
}

// Admit reserves a capacity slot and registers a new in-progress job for url.
// It returns ErrQueueFull when the registry is at capacity and ErrURLInFlight
// when another admitted job for the same URL has not completed yet. On
// rejection nothing is recorded.
func (r *Registry) Admit(url string) (model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inFlight >= r.maxInFlight {
		return model.Job{}, ErrQueueFull
	}
	if _, ok := r.activeURL[url]; ok {
		return model.Job{}, ErrURLInFlight
	}

	j := model.Job{
		ID:        uuid.NewString(),
		URL:       url,
		Status:    model.JobStatusInProgress,
		CreatedAt: r.now(),
	}
	r.jobs[j.ID] = &entry{job: j}
	r.activeURL[url] = j.ID
	r.inFlight++

	return j, nil
}

// Get returns a snapshot of the job tracked under id. The snapshot's Result
// payload is shared and must be treated as read-only.
func (r *Registry) Get(id string) (model.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok {
		return model.Job{}, false
	}
	return e.job, true
}

// SetResult transitions the job to success and records its result payload.
// The transition happens at most once; a job already in a terminal status
// returns ErrJobFinished. The registry takes ownership of result, which must
// not be mutated afterwards.
func (r *Registry) SetResult(id string, result *model.SummaryResult) error {
	return r.finish(id, func(j *model.Job) {
		j.Status = model.JobStatusSuccess
		j.Result = result
	})
}

// SetError transitions the job to failure and records the error message.
// Like SetResult, the transition happens at most once.
func (r *Registry) SetError(id string, msg string) error {
	return r.finish(id, func(j *model.Job) {
		j.Status = model.JobStatusFailure
		j.Error = msg
	})
}

func (r *Registry) finish(id string, apply func(*model.Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if e.job.Status.Terminal() {
		return ErrJobFinished
	}

	apply(&e.job)
	finished := r.now()
	e.job.FinishedAt = &finished
	return nil
}

// Complete releases the job's capacity slot and frees its URL for
// resubmission. It is safe to call unconditionally and repeatedly: only the
// first call for a given id releases the slot. The job entry itself stays
// pollable until Sweep evicts it.
func (r *Registry) Complete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok || e.released {
		return false
	}

	e.released = true
	r.inFlight--
	if r.activeURL[e.job.URL] == id {
		delete(r.activeURL, e.job.URL)
	}
	return true
}

// Sweep evicts completed terminal entries whose retention window has elapsed
// and returns how many were removed. In-flight jobs are never evicted.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.retention)
	removed := 0
	for id, e := range r.jobs {
		if !e.released || !e.job.Status.Terminal() || e.job.FinishedAt == nil {
			continue
		}
		if e.job.FinishedAt.After(cutoff) {
			continue
		}
		delete(r.jobs, id)
		removed++
	}
	return removed
}

// InFlight reports how many jobs are admitted but not yet completed.
func (r *Registry) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

// Tracked reports how many job entries the registry currently holds,
// including terminal entries awaiting eviction.
func (r *Registry) Tracked() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
