package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/models"
	"github.com/ternarybob/probo/internal/services/jobs"
)

// FormHandler handles form submission requests
type FormHandler struct {
	manager       *jobs.Manager
	defaultEngine models.EngineType
	logger        arbor.ILogger
}

// NewFormHandler creates a new form handler
func NewFormHandler(manager *jobs.Manager, defaultEngine models.EngineType, logger arbor.ILogger) *FormHandler {
	return &FormHandler{
		manager:       manager,
		defaultEngine: defaultEngine,
		logger:        logger,
	}
}

// SubmitHandler accepts a form filling request and starts a job
// POST /api/v1/form/submit
func (h *FormHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	var request models.FormRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	defer r.Body.Close()

	if request.BrowserEngine == "" {
		request.BrowserEngine = h.defaultEngine
	}

	job, err := h.manager.Submit(r.Context(), &request)
	if err != nil {
		h.logger.Warn().Err(err).Str("target_url", request.TargetURL).Msg("Form submission rejected")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})
}
