package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/skimworks/skim-api/internal/domain/model"
	apperrors "github.com/skimworks/skim-api/internal/errors"
	"github.com/skimworks/skim-api/internal/service"
)

// SummaryHandlers exposes submission, polling, and record lookup over HTTP.
type SummaryHandlers struct {
	Svc *service.SummarizeService
}

// Submit accepts a URL for background summarization and replies 202 with the
// request id to poll. Full-queue and duplicate-URL submissions are turned away
// with 429 and 409 so the caller can retry.
func (h *SummaryHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitSummaryRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	resp, err := h.Svc.Submit(r.Context(), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, resp)
}

// Status reports the state of one submitted job.
func (h *SummaryHandlers) Status(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("request_id")
	if id == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_path",
			Err:     errors.New("request id is required"),
		})
		return
	}

	resp, err := h.Svc.Status(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}

// Lookup returns the persisted summary record for the url query parameter.
// Unlike Status it reads the durable store, so records survive restarts and
// registry retention sweeps.
func (h *SummaryHandlers) Lookup(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		WriteAppError(w, apperrors.ValidationField("url", "url query parameter is required"))
		return
	}

	record, err := h.Svc.LookupByURL(r.Context(), url)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, record)
}
