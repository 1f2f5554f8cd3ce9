// Package ollama implements the model generator port against the Ollama
// HTTP generate API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/skimworks/skim-api/internal/core"
	apperrors "github.com/skimworks/skim-api/internal/errors"
)

const (
	// DefaultEndpoint is the generate endpoint of a local Ollama daemon.
	DefaultEndpoint = "http://localhost:11434/api/generate"
	// DefaultModel is the model requested when none is configured.
	DefaultModel = "mistral"
	// defaultTimeout bounds a single generate call. Summarizing a full
	// article on local hardware is slow, so the window is generous.
	defaultTimeout = 10 * time.Minute

	maxErrorBodyBytes = 4 * 1024
)

// Config captures runtime configuration for the Ollama client.
type Config struct {
	Endpoint string
	Model    string
	Timeout  time.Duration
	Client   *http.Client
	Logger   *slog.Logger
}

// Client calls the Ollama generate API in non-streaming mode.
type Client struct {
	endpoint string
	model    string
	client   *http.Client
	logger   *slog.Logger
}

var _ core.Generator = (*Client)(nil)

// NewClient constructs an Ollama client from config. Every field has a
// usable default.
func NewClient(cfg Config) *Client {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		endpoint: endpoint,
		model:    model,
		client:   hc,
		logger:   logger,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate submits one prompt and returns the model's reply with
// surrounding whitespace trimmed. Transport failures, timeouts, and non-2xx
// statuses all surface as model-call errors.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeModelCallFailed, "encode generate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeModelCallFailed, "create generate request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeModelCallFailed, "generate request failed")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.handleErrorResponse(resp)
	}

	var out generateResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if closeErr := resp.Body.Close(); closeErr != nil && decodeErr == nil {
		decodeErr = closeErr
	}
	if decodeErr != nil {
		return "", apperrors.Wrap(decodeErr, apperrors.ErrCodeModelCallFailed, "decode generate response")
	}

	c.logger.DebugContext(ctx, "model call complete",
		"model", c.model,
		"duration", time.Since(start),
	)
	return strings.TrimSpace(out.Response), nil
}

func (c *Client) handleErrorResponse(resp *http.Response) error {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if readErr != nil {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return apperrors.Wrap(
				errors.Join(
					fmt.Errorf("read error response: %w", readErr),
					fmt.Errorf("close response body: %w", closeErr),
				),
				apperrors.ErrCodeModelCallFailed, "generate request failed",
			)
		}
		return apperrors.Wrap(fmt.Errorf("read error response: %w", readErr),
			apperrors.ErrCodeModelCallFailed, "generate request failed")
	}
	if err := resp.Body.Close(); err != nil {
		return apperrors.Wrap(fmt.Errorf("close response body: %w", err),
			apperrors.ErrCodeModelCallFailed, "generate request failed")
	}

	return apperrors.ModelCallFailed(
		fmt.Sprintf("ollama api %s: %s", resp.Status, strings.TrimSpace(string(respBody))),
	)
}
