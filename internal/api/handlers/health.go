package handlers

import (
	"net/http"

	"github.com/halcyonlabs/georadar/pkg/database"
	"github.com/halcyonlabs/georadar/pkg/logger"
)

// HealthHandler reports service and database health
type HealthHandler struct {
	db     *database.DB
	logger *logger.Logger
}

// NewHealthHandler creates a health handler. db may be nil when the API
// serves from cache/files only.
func NewHealthHandler(db *database.DB, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: log,
	}
}

// Get returns server health status
// GET /health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "ok",
		"service": "georadar-api",
	}

	if h.db != nil {
		status, err := h.db.HealthCheck(r.Context())
		if err != nil {
			h.logger.WithError(err).Warn("Database health check failed")
			body["status"] = "degraded"
			body["database"] = "unreachable"
			respondJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		body["database"] = status
	}

	respondJSON(w, http.StatusOK, body)
}
