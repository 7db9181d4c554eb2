package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
	"github.com/ternarybob/probo/internal/services/jobs"
	"github.com/ternarybob/probo/internal/services/screenshots"
)

// ScreenshotHandler serves job screenshots and refresh requests
type ScreenshotHandler struct {
	store   *screenshots.Store
	manager *jobs.Manager
	bus     interfaces.EventBus
	logger  arbor.ILogger
}

// NewScreenshotHandler creates a new screenshot handler
func NewScreenshotHandler(store *screenshots.Store, manager *jobs.Manager, bus interfaces.EventBus, logger arbor.ILogger) *ScreenshotHandler {
	return &ScreenshotHandler{
		store:   store,
		manager: manager,
		bus:     bus,
		logger:  logger,
	}
}

// GetScreenshotHandler serves the latest frame for a job
// GET /api/v1/jobs/{id}/screenshot
func (h *ScreenshotHandler) GetScreenshotHandler(w http.ResponseWriter, r *http.Request) {
	jobID := pathSegment(r.URL.Path, 3)
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	shot, ok := h.store.Latest(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "No screenshot available for job")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(shot.Data)
}

// RefreshScreenshotHandler asks the running session for a fresh frame.
// Only valid while the browser session is live.
// POST /api/v1/jobs/{id}/screenshot/refresh
func (h *ScreenshotHandler) RefreshScreenshotHandler(w http.ResponseWriter, r *http.Request) {
	jobID := pathSegment(r.URL.Path, 3)
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	job, err := h.manager.Get(r.Context(), jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	if job.Status != models.JobStatusRunning && job.Status != models.JobStatusWaitingForApproval {
		writeError(w, http.StatusBadRequest, "Job has no live browser session")
		return
	}

	h.bus.Publish(interfaces.Event{
		Type:       interfaces.EventJobUpdate,
		JobID:      jobID,
		UpdateType: interfaces.UpdateScreenshotRefreshReq,
		Message:    "Screenshot refresh requested",
		Timestamp:  time.Now(),
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":  jobID,
		"message": "Screenshot refresh requested",
	})
}
