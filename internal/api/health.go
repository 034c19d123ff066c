package api

import (
	"net/http"
	"time"

	respond "github.com/campuslostfound/lostfound/internal/api/respond"
	"github.com/campuslostfound/lostfound/internal/health"
)

// HealthReporter is the read side of health.Monitor.
type HealthReporter interface {
	IsHealthy() bool
	Snapshot() map[string]health.Status
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	health HealthReporter
}

// NewHealthHandler reports r. A nil reporter always reports unhealthy.
func NewHealthHandler(r HealthReporter) *HealthHandler {
	return &HealthHandler{health: r}
}

// CheckHealth handles GET /api/health
// Always returns 200; the body names each component and whether it is up.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	components := map[string]health.Status{}
	if h.health != nil {
		if h.health.IsHealthy() {
			status = "healthy"
		}
		components = h.health.Snapshot()
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
