package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/skimworks/skim-api/internal/core"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports connectivity of one dependency. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandlers answers liveness probes with per-dependency ping results.
// Nil dependencies are skipped, so a partially wired process still reports.
type HealthHandlers struct {
	DB    Pinger
	Cache core.CacheRepository
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles GET and HEAD /healthz. Any failing dependency turns the
// reply into a 503 with the failing checks named.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	if h.DB != nil {
		checks["db"] = "ok"
		if err := h.DB.PingContext(ctx); err != nil {
			checks["db"] = err.Error()
			healthy = false
		}
	}
	if h.Cache != nil {
		checks["cache"] = "ok"
		if err := h.Cache.Health(ctx); err != nil {
			checks["cache"] = err.Error()
			healthy = false
		}
	}

	code := http.StatusOK
	body := healthStatus{Status: "ok", Checks: checks}
	if !healthy {
		code = http.StatusServiceUnavailable
		body.Status = "unavailable"
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(code)
		return
	}
	WriteJSON(w, code, body)
}
