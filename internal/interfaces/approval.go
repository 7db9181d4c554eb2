package interfaces

import (
	"context"

	"github.com/ternarybob/probo/internal/models"
)

// ApprovalService gates jobs on a human decision. One gate per job.
type ApprovalService interface {
	// RequestApproval registers a pending gate and blocks until a decision
	// arrives or the context is cancelled. Cancellation removes the gate.
	RequestApproval(ctx context.Context, jobID string, preview *models.FormPreview) (models.ApprovalDecision, error)

	// Decide resolves a pending gate. Returns false when no gate is
	// pending for the job, including after an earlier decision.
	Decide(jobID string, decision models.ApprovalDecision) bool

	// Release removes any gate state for the job. Idempotent.
	Release(jobID string)

	// ListPending returns gates currently awaiting a decision.
	ListPending() []models.PendingApproval

	// GetPreview returns the preview for a pending gate.
	GetPreview(jobID string) (*models.FormPreview, bool)

	// Stats reports gate outcome counters since startup.
	Stats() models.ApprovalStats
}
