package handlers

import (
	"net/http"
	"time"

	"github.com/craftmarket/api/internal/repositories"
)

// HealthHandlers serves the liveness and readiness endpoints.
type HealthHandlers struct {
	checker   *repositories.HealthChecker
	startedAt time.Time
}

// NewHealthHandlers constructs health handlers. The checker is optional; a
// nil checker makes /readyz report ready unconditionally.
func NewHealthHandlers(checker *repositories.HealthChecker) *HealthHandlers {
	return &HealthHandlers{
		checker:   checker,
		startedAt: time.Now(),
	}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(h.startedAt).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readyz probes the backing dependencies. Degraded dependencies still count
// as ready; only a down dependency takes the instance out of rotation.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.checker == nil {
		writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}

	report := h.checker.Collect(r.Context())
	status := http.StatusOK
	if report.Status == repositories.HealthDown {
		status = http.StatusServiceUnavailable
	}

	checks := make(map[string]any, len(report.Checks))
	for name, result := range report.Checks {
		entry := map[string]any{
			"status":  string(result.Status),
			"latency": result.Latency.String(),
		}
		if result.Status != repositories.HealthOK {
			entry["detail"] = result.Detail
		}
		checks[name] = entry
	}

	writeJSONResponse(w, status, map[string]any{
		"status":      string(report.Status),
		"checks":      checks,
		"generatedAt": report.GeneratedAt.UTC().Format(time.RFC3339),
	})
}
