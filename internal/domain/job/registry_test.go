package job

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skimworks/skim-api/internal/domain/model"
)

func newTestRegistry(t *testing.T, opts RegistryOptions) *Registry {
	t.Helper()
	r, err := NewRegistry(opts)
	require.NoError(t, err)
	return r
}

func TestNewRegistryRequiresPositiveCapacity(t *testing.T) {
	r, err := NewRegistry(RegistryOptions{MaxInFlight: 0})
	require.ErrorIs(t, err, ErrInvalidCapacity)
	assert.Nil(t, r)

	r, err = NewRegistry(RegistryOptions{MaxInFlight: -3})
	require.ErrorIs(t, err, ErrInvalidCapacity)
	assert.Nil(t, r)
}

func TestRegistry_AdmitTracksJob(t *testing.T) {
	r := newTestRegistry(t, RegistryOptions{MaxInFlight: 5})

	j, err := r.Admit("https://example.com/a")
	require.NoError(t, err)
	assert.NotEmpty(t, j.ID)
	assert.Equal(t, "https://example.com/a", j.URL)
	assert.Equal(t, model.JobStatusInProgress, j.Status)
	assert.Equal(t, 1, r.InFlight())

	got, ok := r.Get(j.ID)
	require.True(t, ok)
	assert.Equal(t, j.ID, got.ID)
	assert.Equal(t, model.JobStatusInProgress, got.Status)
}

func TestRegistry_AdmitEnforcesCapacity(t *testing.T) {
	r := newTestRegistry(t, RegistryOptions{MaxInFlight: 2})

	first, err := r.Admit("https://example.com/1")
	require.NoError(t, err)
	_, err = r.Admit("https://example.com/2")
	require.NoError(t, err)

	_, err = r.Admit("https://example.com/3")
	require.ErrorIs(t, err, ErrQueueFull)

	// Rejection must leave no trace behind.
	assert.Equal(t, 2, r.Tracked())
	assert.Equal(t, 2, r.InFlight())

	// Completing one job frees exactly one slot.
	assert.True(t, r.Complete(first.ID))
	third, err := r.Admit("https://example.com/3")
	require.NoError(t, err)
	assert.NotEmpty(t, third.ID)
	assert.Equal(t, 2, r.InFlight())
}

func TestRegistry_AdmitRejectsInFlightURL(t *testing.T) {
	r := newTestRegistry(t, RegistryOptions{MaxInFlight: 5})

	first, err := r.Admit("https://example.com/article")
	require.NoError(t, err)

	_, err = r.Admit("https://example.com/article")
	require.ErrorIs(t, err, ErrURLInFlight)
	assert.Equal(t, 1, r.InFlight())

	// A terminal, completed job frees the URL for resubmission.
	require.NoError(t, r.SetResult(first.ID, &model.SummaryResult{URL: first.URL, Summary: "s"}))
	r.Complete(first.ID)

	second, err := r.Admit("https://example.com/article")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// The finished job stays pollable alongside the new one.
	old, ok := r.Get(first.ID)
	require.True(t, ok)
	assert.Equal(t, model.JobStatusSuccess, old.Status)
}

func TestRegistry_GetUnknownID(t *testing.T) {
	r := newTestRegistry(t, RegistryOptions{MaxInFlight: 1})

	_, ok := r.Get("b2f9ac44-0000-0000-0000-000000000000")
	assert.False(t, ok)
}

func TestRegistry_SetResultTransitionsOnce(t *testing.T) {
	r := newTestRegistry(t, RegistryOptions{MaxInFlight: 1})
	j, err := r.Admit("https://example.com")
	require.NoError(t, err)

	res := &model.SummaryResult{URL: j.URL, Summary: "done", Tags: []string{"a"}}
	require.NoError(t, r.SetResult(j.ID, res))

	got, ok := r.Get(j.ID)
	require.True(t, ok)
	assert.Equal(t, model.JobStatusSuccess, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "done", got.Result.Summary)
	require.NotNil(t, got.FinishedAt)

	// A second terminal transition of either kind must be refused.
	assert.ErrorIs(t, r.SetResult(j.ID, res), ErrJobFinished)
	assert.ErrorIs(t, r.SetError(j.ID, "late failure"), ErrJobFinished)

	got, _ = r.Get(j.ID)
	assert.Equal(t, model.JobStatusSuccess, got.Status)
	assert.Empty(t, got.Error)
}

func TestRegistry_SetErrorTransitionsOnce(t *testing.T) {
	r := newTestRegistry(t, RegistryOptions{MaxInFlight: 1})
	j, err := r.Admit("https://example.com")
	require.NoError(t, err)

	require.NoError(t, r.SetError(j.ID, "fetch failed"))

	got, ok := r.Get(j.ID)
	require.True(t, ok)
	assert.Equal(t, model.JobStatusFailure, got.Status)
	assert.Equal(t, "fetch failed", got.Error)
	assert.Nil(t, got.Result)

	assert.ErrorIs(t, r.SetResult(j.ID, &model.SummaryResult{URL: j.URL}), ErrJobFinished)
}

func TestRegistry_SetOnUnknownJob(t *testing.T) {
	r := newTestRegistry(t, RegistryOptions{MaxInFlight: 1})

	err := r.SetResult("missing", &model.SummaryResult{})
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, r.SetError("missing", "boom"), ErrJobNotFound)
}

func TestRegistry_CompleteReleasesOnce(t *testing.T) {
	r := newTestRegistry(t, RegistryOptions{MaxInFlight: 2})
	j, err := r.Admit("https://example.com")
	require.NoError(t, err)
	require.NoError(t, r.SetError(j.ID, "boom"))

	assert.True(t, r.Complete(j.ID))
	assert.Equal(t, 0, r.InFlight())

	// Repeated completion must not double-free the slot.
	assert.False(t, r.Complete(j.ID))
	assert.Equal(t, 0, r.InFlight())

	assert.False(t, r.Complete("missing"))
}

func TestRegistry_SweepEvictsOnlyExpiredTerminalEntries(t *testing.T) {
	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(d)
	}

	r := newTestRegistry(t, RegistryOptions{
		MaxInFlight: 5,
		Retention:   10 * time.Minute,
		Clock:       clock,
	})

	done, err := r.Admit("https://example.com/done")
	require.NoError(t, err)
	require.NoError(t, r.SetResult(done.ID, &model.SummaryResult{URL: done.URL, Summary: "s"}))
	r.Complete(done.ID)

	running, err := r.Admit("https://example.com/running")
	require.NoError(t, err)

	// Inside the retention window nothing is evicted.
	advance(5 * time.Minute)
	assert.Equal(t, 0, r.Sweep())
	assert.Equal(t, 2, r.Tracked())

	// Past the window the terminal entry goes, the running one stays.
	advance(6 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Tracked())

	_, ok := r.Get(done.ID)
	assert.False(t, ok)
	_, ok = r.Get(running.ID)
	assert.True(t, ok)

	// An uncompleted terminal job must never be swept.
	require.NoError(t, r.SetError(running.ID, "boom"))
	advance(time.Hour)
	assert.Equal(t, 0, r.Sweep())
	r.Complete(running.ID)
	advance(time.Hour)
	assert.Equal(t, 1, r.Sweep())
}

func TestRegistry_ConcurrentAdmitNeverExceedsCapacity(t *testing.T) {
	const capacity = 5
	const workers = 40

	r := newTestRegistry(t, RegistryOptions{MaxInFlight: capacity})

	var current, peak, admitted int64
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for attempt := range 20 {
				url := fmt.Sprintf("https://example.com/%d/%d", n, attempt)
				j, err := r.Admit(url)
				if err != nil {
					continue
				}
				atomic.AddInt64(&admitted, 1)
				cur := atomic.AddInt64(&current, 1)
				for {
					prev := atomic.LoadInt64(&peak)
					if cur <= prev || atomic.CompareAndSwapInt64(&peak, prev, cur) {
						break
					}
				}
				_ = r.SetResult(j.ID, &model.SummaryResult{URL: url, Summary: "s"})
				atomic.AddInt64(&current, -1)
				r.Complete(j.ID)
			}
		}(i)
	}
	wg.Wait()

	assert.Positive(t, atomic.LoadInt64(&admitted))
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(capacity))
	assert.Equal(t, 0, r.InFlight())
}
