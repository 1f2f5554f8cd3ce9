package metrics

import (
	"context"
	"time"

	"github.com/skimworks/skim-api/internal/core"
	obserrors "github.com/skimworks/skim-api/internal/observability/errors"
	"github.com/skimworks/skim-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Submission outcome constants.
const (
	SubmissionAdmitted         = "admitted"
	SubmissionRejectedCapacity = "rejected_capacity"
	SubmissionRejectedConflict = "rejected_conflict"
	SubmissionInvalid          = "invalid"
)

// EmitSubmission counts one submission attempt by admission outcome.
func EmitSubmission(sink statsd.Sink, outcome string) {
	if sink == nil {
		return
	}
	sink.Count("summarize.submission", 1, map[string]string{"outcome": outcome})
}

// JobMetric captures details about one finished pipeline run.
type JobMetric struct {
	Result       string
	Path         string // direct or chunked
	Duration     time.Duration
	PromptTokens int
	ChunkCount   int
	Err          error
}

// EmitJobOutcome emits standardised pipeline outcome metrics.
func EmitJobOutcome(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{"result": in.Result}
	if in.Path != "" {
		tags["path"] = in.Path
	}
	if in.Err != nil && in.Result == ResultFailure {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("summarize.job", 1, tags)

	if in.Duration > 0 {
		sink.Timing("summarize.job.duration", in.Duration, CloneTags(tags))
	}
	if in.PromptTokens > 0 {
		sink.Gauge("summarize.job.prompt_tokens", float64(in.PromptTokens), CloneTags(tags))
	}
	if in.ChunkCount > 0 {
		sink.Count("summarize.job.chunks", int64(in.ChunkCount), CloneTags(tags))
	}
}

// EmitSweep counts registry entries evicted by the janitor.
func EmitSweep(sink statsd.Sink, evicted int) {
	if sink == nil || evicted <= 0 {
		return
	}
	sink.Count("registry.evictions", int64(evicted), nil)
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// instrumentedGenerator wraps a Generator with call timing and outcome counts.
type instrumentedGenerator struct {
	inner core.Generator
	sink  statsd.Sink
}

// InstrumentGenerator decorates gen so every model call emits a duration
// timing and an outcome count. A nil sink returns gen unchanged.
func InstrumentGenerator(gen core.Generator, sink statsd.Sink) core.Generator {
	if sink == nil {
		return gen
	}
	return &instrumentedGenerator{inner: gen, sink: sink}
}

func (g *instrumentedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	reply, err := g.inner.Generate(ctx, prompt)

	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	tags := map[string]string{"result": result}
	g.sink.Count("summarize.model_call", 1, tags)
	g.sink.Timing("summarize.model_call.duration", time.Since(start), CloneTags(tags))

	return reply, err
}
