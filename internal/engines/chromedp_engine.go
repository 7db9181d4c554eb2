package engines

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

// ChromedpEngine fills forms with direct protocol control and deterministic
// keyword matching between request values and detected fields.
type ChromedpEngine struct {
	config Config
	logger arbor.ILogger
}

// NewChromedpEngine creates the direct-control engine
func NewChromedpEngine(config Config, logger arbor.ILogger) *ChromedpEngine {
	return &ChromedpEngine{
		config: config,
		logger: logger,
	}
}

// Name returns the engine identifier
func (e *ChromedpEngine) Name() string {
	return string(models.EngineChromedp)
}

// Run drives the browser through fill, approval and submit
func (e *ChromedpEngine) Run(ctx context.Context, job *models.Job, callbacks interfaces.Callbacks) (*models.JobResult, error) {
	mapper := func(_ context.Context, request *models.FormRequest, fields map[string]string, _ string) (map[string]string, error) {
		return heuristicMapping(request, fields), nil
	}
	return runSession(ctx, job, callbacks, e.config, mapper, e.logger)
}
