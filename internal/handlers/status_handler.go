package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/services/jobs"
)

// StatusHandler handles health and version requests
type StatusHandler struct {
	manager   *jobs.Manager
	approvals interfaces.ApprovalService
	startedAt time.Time
	logger    arbor.ILogger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(manager *jobs.Manager, approvals interfaces.ApprovalService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		manager:   manager,
		approvals: approvals,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// HealthHandler reports service liveness and workload counts
// GET /health
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "healthy",
		"version":           common.GetVersion(),
		"uptime":            time.Since(h.startedAt).String(),
		"active_jobs":       h.manager.ActiveCount(),
		"pending_approvals": h.approvals.Stats().Pending,
	})
}

// VersionHandler reports build information
// GET /api/v1/version
func (h *StatusHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version": common.GetFullVersion(),
	})
}

// NotFoundHandler is the fallback for unmatched API routes
func (h *StatusHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}
