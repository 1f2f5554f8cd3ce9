// Package httpx wires the summarizer's services to their HTTP surface:
// submission, status polling, record lookup, and health.
package httpx

import (
	"net/http"

	"github.com/skimworks/skim-api/internal/core"
	"github.com/skimworks/skim-api/internal/service"
)

// RouterServices groups the dependencies the route table needs.
type RouterServices struct {
	Summaries *service.SummarizeService
	DB        Pinger
	Cache     core.CacheRepository
}

// NewRouter builds the route table for the API.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	registerSummaryRoutes(mux, &SummaryHandlers{Svc: services.Summaries})
	registerHealthRoutes(mux, &HealthHandlers{DB: services.DB, Cache: services.Cache})

	return mux
}

func registerSummaryRoutes(mux *http.ServeMux, h *SummaryHandlers) {
	mux.HandleFunc("POST /summarize", h.Submit)
	mux.HandleFunc("GET /status/{request_id}", h.Status)
	mux.HandleFunc("GET /summaries", h.Lookup)
}

func registerHealthRoutes(mux *http.ServeMux, h *HealthHandlers) {
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("HEAD /healthz", h.Health)
}
