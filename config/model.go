package config

import (
	"strings"
	"time"
)

// ModelConfig points the summarizer at its generation backend.
type ModelConfig struct {
	// APIURL is the generate endpoint of an Ollama-compatible server.
	APIURL string `env:"MODEL_API_URL" envDefault:"http://localhost:11434/api/generate"`

	// Name is the model to request.
	Name string `env:"MODEL_NAME" envDefault:"mistral"`

	// Timeout bounds one generation call. Summarizing a long chunk can take
	// minutes on modest hardware, so this is deliberately generous.
	Timeout time.Duration `env:"MODEL_TIMEOUT" envDefault:"10m"`
}

// Sanitize applies guardrails to model configuration values.
func (m *ModelConfig) Sanitize() {
	m.APIURL = strings.TrimSpace(m.APIURL)
	m.Name = strings.TrimSpace(m.Name)
	if m.Timeout <= 0 {
		m.Timeout = 10 * time.Minute
	}
}
