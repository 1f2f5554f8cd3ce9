package config

import (
	"fmt"
	"time"
)

// PipelineConfig controls chunking thresholds and admission capacity.
type PipelineConfig struct {
	// MaxTokens is the prompt-token threshold above which a document is
	// chunked instead of summarized in one model call.
	MaxTokens int `env:"PIPELINE_MAX_TOKENS" envDefault:"6000"`

	// ChunkMaxTokens is the per-chunk token budget.
	ChunkMaxTokens int `env:"PIPELINE_CHUNK_MAX_TOKENS" envDefault:"1500"`

	// ChunkOverlap is how many tokens consecutive chunks share, so sentences
	// cut at a boundary survive in the neighbouring chunk.
	ChunkOverlap int `env:"PIPELINE_CHUNK_OVERLAP" envDefault:"200"`

	// MaxInFlight bounds how many jobs may be admitted but not yet completed.
	MaxInFlight int `env:"PIPELINE_MAX_IN_FLIGHT" envDefault:"5"`
}

// Sanitize applies guardrails to pipeline configuration values.
func (p *PipelineConfig) Sanitize() {
	if p.MaxTokens < 1 {
		p.MaxTokens = 1
	}
	if p.ChunkMaxTokens < 1 {
		p.ChunkMaxTokens = 1
	}
	if p.ChunkOverlap < 0 {
		p.ChunkOverlap = 0
	}
	if p.MaxInFlight < 1 {
		p.MaxInFlight = 1
	}
}

// Validate rejects combinations Sanitize cannot fix. An overlap at or above
// the chunk budget would stop chunking from advancing through the document.
func (p *PipelineConfig) Validate() error {
	if p.ChunkOverlap >= p.ChunkMaxTokens {
		return fmt.Errorf(
			"chunk overlap (%d) must be smaller than the chunk token budget (%d)",
			p.ChunkOverlap, p.ChunkMaxTokens,
		)
	}
	return nil
}

// RegistryConfig controls retention of finished jobs in the status table.
type RegistryConfig struct {
	// Retention is how long finished jobs stay pollable before eviction.
	Retention time.Duration `env:"REGISTRY_RETENTION" envDefault:"30m"`

	// SweepInterval is how often expired entries are collected.
	SweepInterval time.Duration `env:"REGISTRY_SWEEP_INTERVAL" envDefault:"1m"`
}

// Sanitize applies guardrails to registry configuration values.
func (r *RegistryConfig) Sanitize() {
	if r.Retention <= 0 {
		r.Retention = 30 * time.Minute
	}
	if r.SweepInterval <= 0 {
		r.SweepInterval = time.Minute
	}
}
