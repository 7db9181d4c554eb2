package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

// EngineFactory constructs an engine for a submitted job's requested type
type EngineFactory func(engineType models.EngineType) (interfaces.Engine, error)

// ScreenshotSink receives frames captured during a job's browser session
type ScreenshotSink interface {
	Put(jobID string, png []byte)
	Latest(jobID string) (*models.Screenshot, bool)
}

// Manager owns the job lifecycle from submission to terminal state.
// Each accepted job runs in its own goroutine; the approval gate is
// cleaned up on every exit path.
type Manager struct {
	storage     interfaces.JobStorage
	bus         interfaces.EventBus
	approvals   interfaces.ApprovalService
	screenshots ScreenshotSink
	newEngine   EngineFactory
	logger      arbor.ILogger

	// semaphore bounds concurrent runs when configured, nil means unbounded
	semaphore chan struct{}

	mu      sync.RWMutex
	running map[string]struct{}
}

// NewManager creates a job manager. maxConcurrent of zero leaves
// concurrency unbounded.
func NewManager(
	storage interfaces.JobStorage,
	bus interfaces.EventBus,
	approvals interfaces.ApprovalService,
	screenshots ScreenshotSink,
	newEngine EngineFactory,
	maxConcurrent int,
	logger arbor.ILogger,
) *Manager {
	m := &Manager{
		storage:     storage,
		bus:         bus,
		approvals:   approvals,
		screenshots: screenshots,
		newEngine:   newEngine,
		logger:      logger,
		running:     make(map[string]struct{}),
	}
	if maxConcurrent > 0 {
		m.semaphore = make(chan struct{}, maxConcurrent)
	}
	return m
}

// Submit validates the request, persists a queued job and launches its run
func (m *Manager) Submit(ctx context.Context, request *models.FormRequest) (*models.Job, error) {
	if request == nil {
		return nil, fmt.Errorf("form request is required")
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}

	job := models.NewJob(request)
	job.EngineName = string(request.BrowserEngine)

	if err := m.storage.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}

	m.logger.Info().
		Str("job_id", job.ID).
		Str("engine", job.EngineName).
		Str("target_url", request.TargetURL).
		Bool("require_approval", request.RequiresApproval()).
		Msg("Job submitted")

	m.publishStatus(job, "Job queued")

	common.SafeGo(m.logger, "runJob:"+job.ID, func() {
		m.run(job)
	})

	return job, nil
}

// Get returns a job by ID
func (m *Manager) Get(ctx context.Context, jobID string) (*models.Job, error) {
	return m.storage.GetJob(ctx, jobID)
}

// List returns jobs matching the options
func (m *Manager) List(ctx context.Context, opts *interfaces.JobListOptions) ([]*models.Job, error) {
	return m.storage.ListJobs(ctx, opts)
}

// ActiveCount returns the number of jobs currently running
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.running)
}

// Stats summarizes job counts by status
func (m *Manager) Stats(ctx context.Context) (*models.JobStats, error) {
	total, err := m.storage.CountJobs(ctx)
	if err != nil {
		return nil, err
	}

	queued, _ := m.storage.CountJobsByStatus(ctx, string(models.JobStatusQueued))
	running, _ := m.storage.CountJobsByStatus(ctx, string(models.JobStatusRunning))
	waiting, _ := m.storage.CountJobsByStatus(ctx, string(models.JobStatusWaitingForApproval))
	rejected, _ := m.storage.CountJobsByStatus(ctx, string(models.JobStatusRejected))
	completed, _ := m.storage.CountJobsByStatus(ctx, string(models.JobStatusCompleted))
	failed, _ := m.storage.CountJobsByStatus(ctx, string(models.JobStatusFailed))

	return &models.JobStats{
		TotalJobs:     total,
		QueuedJobs:    queued,
		RunningJobs:   running,
		WaitingJobs:   waiting,
		RejectedJobs:  rejected,
		CompletedJobs: completed,
		FailedJobs:    failed,
		ActiveJobs:    m.ActiveCount(),
	}, nil
}

// run executes one job to a terminal state
func (m *Manager) run(job *models.Job) {
	if m.semaphore != nil {
		m.semaphore <- struct{}{}
		defer func() { <-m.semaphore }()
	}

	m.mu.Lock()
	m.running[job.ID] = struct{}{}
	m.mu.Unlock()

	ctx := context.Background()

	defer func() {
		m.mu.Lock()
		delete(m.running, job.ID)
		m.mu.Unlock()

		// Gate state must never outlive the job. Screenshots are kept so
		// the final frame stays reviewable after completion.
		m.approvals.Release(job.ID)
	}()

	engine, err := m.newEngine(models.EngineType(job.EngineName))
	if err != nil {
		m.fail(ctx, job, fmt.Sprintf("engine construction failed: %v", err))
		return
	}

	job.MarkRunning()
	m.persist(ctx, job)
	m.publishStatus(job, "Job started")

	startedAt := time.Now()
	result, err := engine.Run(ctx, job, m.callbacksFor(job))

	// This goroutine owns the job record, so screenshot presence is derived
	// here rather than in the capture callback, which fires on the session
	// monitor goroutine.
	if _, ok := m.screenshots.Latest(job.ID); ok {
		job.HasScreenshot = true
	}

	if err != nil {
		m.fail(ctx, job, err.Error())
		return
	}

	if job.Status == models.JobStatusRejected {
		// Rejection is terminal. The status change was published when the
		// decision came in; only the outcome gets attached here.
		job.FinalizeRejection(result)
		m.persist(ctx, job)
		m.bus.Publish(interfaces.Event{
			Type:       interfaces.EventJobUpdate,
			JobID:      job.ID,
			UpdateType: interfaces.UpdateCompletion,
			Message:    completionMessage(result),
			Timestamp:  time.Now(),
			Data: map[string]interface{}{
				"success":  false,
				"reason":   result.Reason,
				"duration": time.Since(startedAt).String(),
			},
		})

		m.logger.Info().
			Str("job_id", job.ID).
			Dur("duration", time.Since(startedAt)).
			Msg("Job rejected by reviewer")
		return
	}

	job.MarkCompleted(result)
	m.persist(ctx, job)
	m.publishStatus(job, "Job completed")
	m.bus.Publish(interfaces.Event{
		Type:       interfaces.EventJobUpdate,
		JobID:      job.ID,
		UpdateType: interfaces.UpdateCompletion,
		Message:    completionMessage(result),
		Timestamp:  time.Now(),
		Data: map[string]interface{}{
			"success":         result.Success,
			"confirmation_id": result.ConfirmationID,
			"duration":        time.Since(startedAt).String(),
		},
	})

	m.logger.Info().
		Str("job_id", job.ID).
		Bool("success", result.Success).
		Dur("duration", time.Since(startedAt)).
		Msg("Job finished")
}

// callbacksFor wires engine callbacks into persistence, events and the gate
func (m *Manager) callbacksFor(job *models.Job) interfaces.Callbacks {
	ctx := context.Background()

	return interfaces.Callbacks{
		Progress: func(percentage int, step string) {
			job.SetProgress(percentage, step)
			m.persist(ctx, job)
			m.bus.Publish(interfaces.Event{
				Type:       interfaces.EventJobUpdate,
				JobID:      job.ID,
				UpdateType: interfaces.UpdateProgress,
				Message:    step,
				Timestamp:  time.Now(),
				Data: map[string]interface{}{
					"progress_percentage": job.ProgressPercentage,
					"current_step":        job.CurrentStep,
				},
			})
		},
		Screenshot: func(png []byte) {
			m.screenshots.Put(job.ID, png)
		},
		Approval: func(approvalCtx context.Context, preview *models.FormPreview) (models.ApprovalDecision, error) {
			job.MarkWaitingForApproval()
			m.persist(ctx, job)
			m.publishStatus(job, "Waiting for human approval")

			decision, err := m.approvals.RequestApproval(approvalCtx, job.ID, preview)
			if err != nil {
				return decision, err
			}

			if decision.Approved {
				job.MarkApproved(decision.Reason, decision.DecidedBy)
			} else {
				job.MarkRejected(decision.Reason, decision.DecidedBy)
			}
			m.persist(ctx, job)
			m.publishStatus(job, job.CurrentStep)

			return decision, nil
		},
	}
}

// fail moves the job to failed and publishes the error
func (m *Manager) fail(ctx context.Context, job *models.Job, errMsg string) {
	job.MarkFailed(errMsg)
	m.persist(ctx, job)
	m.publishStatus(job, "Job failed")
	m.bus.Publish(interfaces.Event{
		Type:       interfaces.EventJobUpdate,
		JobID:      job.ID,
		UpdateType: interfaces.UpdateError,
		Message:    errMsg,
		Timestamp:  time.Now(),
	})

	m.logger.Error().
		Str("job_id", job.ID).
		Str("error", errMsg).
		Msg("Job failed")
}

func (m *Manager) persist(ctx context.Context, job *models.Job) {
	if err := m.storage.UpdateJob(ctx, job); err != nil {
		m.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to persist job update")
	}
}

func (m *Manager) publishStatus(job *models.Job, message string) {
	m.bus.Publish(interfaces.Event{
		Type:       interfaces.EventJobUpdate,
		JobID:      job.ID,
		UpdateType: interfaces.UpdateStatusChange,
		Message:    message,
		Timestamp:  time.Now(),
		Data: map[string]interface{}{
			"status":              string(job.Status),
			"progress_percentage": job.ProgressPercentage,
		},
	})
}

func completionMessage(result *models.JobResult) string {
	if result.Success {
		return "Form submitted successfully"
	}
	if result.Reason != "" {
		return result.Reason
	}
	return "Job completed without submission"
}
