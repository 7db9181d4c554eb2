package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

// ApprovalHandler handles human review API requests
type ApprovalHandler struct {
	approvals interfaces.ApprovalService
	logger    arbor.ILogger
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(approvals interfaces.ApprovalService, logger arbor.ILogger) *ApprovalHandler {
	return &ApprovalHandler{
		approvals: approvals,
		logger:    logger,
	}
}

// ListPendingHandler returns jobs awaiting a decision
// GET /api/v1/approval/pending
func (h *ApprovalHandler) ListPendingHandler(w http.ResponseWriter, r *http.Request) {
	pending := h.approvals.ListPending()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pending": pending,
		"count":   len(pending),
	})
}

// GetPreviewHandler returns the form preview for a pending job
// GET /api/v1/approval/{id}/preview
func (h *ApprovalHandler) GetPreviewHandler(w http.ResponseWriter, r *http.Request) {
	jobID := pathSegment(r.URL.Path, 3)
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	preview, ok := h.approvals.GetPreview(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "No pending approval for job")
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

// DecideHandler resolves a pending approval
// POST /api/v1/approval/{id}/approve
func (h *ApprovalHandler) DecideHandler(w http.ResponseWriter, r *http.Request) {
	jobID := pathSegment(r.URL.Path, 3)
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	var decision models.ApprovalDecision
	if err := json.NewDecoder(r.Body).Decode(&decision); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	defer r.Body.Close()

	if !h.approvals.Decide(jobID, decision) {
		writeError(w, http.StatusNotFound, "No pending approval for job")
		return
	}

	h.logger.Info().
		Str("job_id", jobID).
		Bool("approved", decision.Approved).
		Msg("Approval decision recorded")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":   jobID,
		"approved": decision.Approved,
		"message":  "Decision recorded",
	})
}

// StatsHandler returns gate outcome counters
// GET /api/v1/approval/stats
func (h *ApprovalHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.approvals.Stats())
}
