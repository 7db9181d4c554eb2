package handlers

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/services/jobs"
)

// JobHandler handles job query API requests
type JobHandler struct {
	manager *jobs.Manager
	logger  arbor.ILogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(manager *jobs.Manager, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		manager: manager,
		logger:  logger,
	}
}

// ListJobsHandler returns a paginated list of jobs
// GET /api/v1/jobs?limit=50&offset=0&status=completed
func (h *JobHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	opts := &interfaces.JobListOptions{
		Status:   r.URL.Query().Get("status"),
		Limit:    limit,
		Offset:   offset,
		OrderBy:  "CreatedAt",
		OrderDir: "DESC",
	}

	jobList, err := h.manager.List(ctx, opts)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list jobs")
		writeError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":   jobList,
		"count":  len(jobList),
		"limit":  limit,
		"offset": offset,
	})
}

// GetJobHandler returns a single job by ID
// GET /api/v1/jobs/{id}
func (h *JobHandler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, job)
}

// GetJobStatsHandler returns job counts by status
// GET /api/v1/jobs/stats
func (h *JobHandler) GetJobStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.manager.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to compute job stats")
		writeError(w, http.StatusInternalServerError, "Failed to compute job stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
