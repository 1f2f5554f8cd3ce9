// Package model defines the core data types and structures used throughout the skim summarization service.
package model

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// JobStatus represents the current status of a summarization job.
type JobStatus string

const (
	// JobStatusInProgress indicates a job has been admitted and is being processed.
	JobStatusInProgress JobStatus = "in_progress"
	// JobStatusSuccess indicates a job has finished and produced a result.
	JobStatusSuccess JobStatus = "success"
	// JobStatusFailure indicates a job has finished with an error.
	JobStatusFailure JobStatus = "failure"
)

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusInProgress || s == JobStatusSuccess || s == JobStatusFailure
}

// Terminal returns true once the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailure
}

// Job represents one admitted summarization request, tracked from admission
// to terminal state. A job is mutated only by the worker processing its id.
type Job struct {
	ID         string         `json:"id"`
	URL        string         `json:"url"`
	Status     JobStatus      `json:"status"`
	Result     *SummaryResult `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// SubmitSummaryRequest represents a request to summarize one URL.
type SubmitSummaryRequest struct {
	URL string `json:"url"`
}

// Validate validates the SubmitSummaryRequest fields.
func (r *SubmitSummaryRequest) Validate() error {
	raw := strings.TrimSpace(r.URL)
	if raw == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("url is not parseable")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("url host is required")
	}
	return nil
}

// SubmitSummaryResponse carries the opaque identifier handed back on admission.
type SubmitSummaryResponse struct {
	RequestID string `json:"request_id"`
}

// JobStatusResponse is the polling payload for one job.
// Result is present only for success, Error only for failure.
type JobStatusResponse struct {
	Status JobStatus      `json:"status"`
	Result *SummaryResult `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}
