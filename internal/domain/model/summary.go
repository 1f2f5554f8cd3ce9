package model

import (
	"encoding/json"
	"time"
)

// SummaryResult is the payload produced by a finished summarization job.
//
// A clean run carries Summary and Tags. When the article exceeded the token
// budget and was processed in chunks, ChunkCount reports how many. When the
// model reply could not be parsed, RawResponse preserves the reply verbatim
// and ParseError explains why; the job itself still counts as a success.
type SummaryResult struct {
	URL         string   `json:"url"`
	Summary     string   `json:"summary,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	ChunkCount  int      `json:"chunk_count,omitempty"`
	RawResponse string   `json:"raw_response,omitempty"`
	ParseError  string   `json:"error,omitempty"`
}

// Degraded returns true when the result carries a raw model reply instead of
// a parsed summary.
func (r *SummaryResult) Degraded() bool {
	return r != nil && r.ParseError != ""
}

// SummaryRecord is one persisted summarization outcome, keyed by URL. A later
// run for the same URL overwrites the previous record.
type SummaryRecord struct {
	ID              string          `json:"id" db:"id"`
	URL             string          `json:"url" db:"url"`
	Status          JobStatus       `json:"status" db:"status"`
	Result          json.RawMessage `json:"result,omitempty" db:"result"`
	Error           *string         `json:"error,omitempty" db:"error"`
	DurationSeconds *float64        `json:"duration_seconds,omitempty" db:"duration_seconds"`
	TotalTokens     *int            `json:"total_tokens,omitempty" db:"total_tokens"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// DecodedResult unmarshals the stored result payload, or returns nil when the
// record has none.
func (r *SummaryRecord) DecodedResult() (*SummaryResult, error) {
	if len(r.Result) == 0 {
		return nil, nil
	}
	var out SummaryResult
	if err := json.Unmarshal(r.Result, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
