package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/skimworks/skim-api/internal/domain/model"
)

// This file contains the interface definitions (ports in hexagonal architecture)
// between the service layer and its collaborators: persistence, the language
// model, tokenization, and article retrieval. Service implementations should
// depend on these interfaces, not concrete implementations.

// Generator defines the interface for single-shot text generation against a
// language model. Implementations own their own request timeout.
type Generator interface {
	// Generate sends one prompt and returns the model's reply text.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Tokenizer defines the interface for the token codec used to measure and
// split article text. Encode and Decode must round-trip: Decode(Encode(s))
// yields s for any input the encoding covers.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
	// Count reports the token length of text without the caller holding the slice.
	Count(text string) int
}

// ArticleFetcher defines the interface for retrieving readable article text
// from a URL. Implementations reject pages that do not look like articles.
type ArticleFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// UpsertSummaryParams groups parameters for SummaryRepository.Upsert to keep param count ≤3.
type UpsertSummaryParams struct {
	URL             string
	Status          model.JobStatus
	Result          json.RawMessage
	Error           *string
	DurationSeconds *float64
	TotalTokens     *int
}

// ListSummariesOptions holds filters for SummaryRepository.List.
type ListSummariesOptions struct {
	Status model.JobStatus // empty means all statuses
	Limit  int
	Offset int
}

// SummaryRepository defines the interface for persisted summary data,
// keyed by URL. Upsert overwrites any previous row for the same URL.
type SummaryRepository interface {
	Upsert(ctx context.Context, params UpsertSummaryParams) (*model.SummaryRecord, error)
	GetByURL(ctx context.Context, url string) (*model.SummaryRecord, error)
	List(ctx context.Context, opts ListSummariesOptions) ([]*model.SummaryRecord, error)
	// DeleteOlderThan removes rows not updated within maxAge and returns the
	// number deleted.
	DeleteOlderThan(ctx context.Context, maxAge time.Duration) (int64, error)
}
