package interfaces

import (
	"context"

	"github.com/ternarybob/probo/internal/models"
)

// ProgressFunc reports engine progress back to the job lifecycle
type ProgressFunc func(percentage int, step string)

// ScreenshotFunc delivers a captured PNG frame for the job
type ScreenshotFunc func(png []byte)

// ApprovalFunc pauses the engine until a human decision arrives
type ApprovalFunc func(ctx context.Context, preview *models.FormPreview) (models.ApprovalDecision, error)

// Callbacks wires an engine run into the job lifecycle controller
type Callbacks struct {
	Progress   ProgressFunc
	Screenshot ScreenshotFunc
	Approval   ApprovalFunc
}

// Engine drives a browser session through fill, approval and submit
type Engine interface {
	Name() string
	Run(ctx context.Context, job *models.Job, callbacks Callbacks) (*models.JobResult, error)
}
