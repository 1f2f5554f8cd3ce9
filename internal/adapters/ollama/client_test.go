package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/skimworks/skim-api/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})

	assert.Equal(t, DefaultEndpoint, c.endpoint)
	assert.Equal(t, DefaultModel, c.model)
	require.NotNil(t, c.client)
	assert.Equal(t, defaultTimeout, c.client.Timeout)
	assert.NotNil(t, c.logger)
}

func TestClient_Generate_Success(t *testing.T) {
	var captured generateRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response": "  A one sentence summary.  \n"}`))
	}))
	defer ts.Close()

	c := NewClient(Config{Endpoint: ts.URL, Model: "mistral"})

	got, err := c.Generate(context.Background(), "Summarize this.")

	require.NoError(t, err)
	assert.Equal(t, "A one sentence summary.", got)
	assert.Equal(t, "mistral", captured.Model)
	assert.Equal(t, "Summarize this.", captured.Prompt)
	assert.False(t, captured.Stream)
}

func TestClient_Generate_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient(Config{Endpoint: ts.URL})

	got, err := c.Generate(context.Background(), "prompt")

	require.Error(t, err)
	assert.Empty(t, got)
	assert.True(t, apperrors.IsModelCallFailed(err))
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestClient_Generate_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ts.Close()

	c := NewClient(Config{Endpoint: ts.URL})

	_, err := c.Generate(context.Background(), "prompt")

	require.Error(t, err)
	assert.True(t, apperrors.IsModelCallFailed(err))
}

func TestClient_Generate_MalformedReply(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer ts.Close()

	c := NewClient(Config{Endpoint: ts.URL})

	_, err := c.Generate(context.Background(), "prompt")

	require.Error(t, err)
	assert.True(t, apperrors.IsModelCallFailed(err))
}

func TestClient_Generate_ContextCanceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response": "late"}`))
	}))
	defer ts.Close()

	c := NewClient(Config{Endpoint: ts.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Generate(ctx, "prompt")

	require.Error(t, err)
	assert.True(t, apperrors.IsModelCallFailed(err))
	assert.ErrorIs(t, err, context.Canceled)
}
