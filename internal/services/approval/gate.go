package approval

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

// gate is one pending approval. The decision channel has capacity one and
// receives at most one value, sent by the first successful Decide.
type gate struct {
	decisionCh  chan models.ApprovalDecision
	released    chan struct{}
	preview     *models.FormPreview
	requestedAt time.Time
}

// Service implements ApprovalService with one channel-backed gate per job
type Service struct {
	mu       sync.Mutex
	gates    map[string]*gate
	approved int
	rejected int
	bus      interfaces.EventBus
	logger   arbor.ILogger
}

// NewService creates an approval service publishing gate events on the bus
func NewService(bus interfaces.EventBus, logger arbor.ILogger) *Service {
	return &Service{
		gates:  make(map[string]*gate),
		bus:    bus,
		logger: logger,
	}
}

// RequestApproval registers a gate for the job and blocks until a reviewer
// decides, the gate is released, or the context is cancelled.
func (s *Service) RequestApproval(ctx context.Context, jobID string, preview *models.FormPreview) (models.ApprovalDecision, error) {
	s.mu.Lock()
	if _, exists := s.gates[jobID]; exists {
		s.mu.Unlock()
		return models.ApprovalDecision{}, fmt.Errorf("approval already pending for job: %s", jobID)
	}

	g := &gate{
		decisionCh:  make(chan models.ApprovalDecision, 1),
		released:    make(chan struct{}),
		preview:     preview,
		requestedAt: time.Now(),
	}
	s.gates[jobID] = g
	pending := len(s.gates)
	s.mu.Unlock()

	s.logger.Info().
		Str("job_id", jobID).
		Int("pending_approvals", pending).
		Msg("Approval requested, job paused")

	s.bus.Publish(interfaces.Event{
		Type:       interfaces.EventJobUpdate,
		JobID:      jobID,
		UpdateType: interfaces.UpdateApprovalRequired,
		Message:    "Job is waiting for human approval",
		Timestamp:  time.Now(),
		Data: map[string]interface{}{
			"target_url": preview.TargetURL,
			"subject":    preview.Subject,
		},
	})

	select {
	case decision := <-g.decisionCh:
		s.recordOutcome(decision)
		return decision, nil
	case <-g.released:
		return models.ApprovalDecision{}, fmt.Errorf("approval gate released for job: %s", jobID)
	case <-ctx.Done():
		s.removeGate(jobID)
		return models.ApprovalDecision{}, ctx.Err()
	}
}

// Decide resolves a pending gate. The first decision wins; any later call
// for the same job finds no gate and returns false.
func (s *Service) Decide(jobID string, decision models.ApprovalDecision) bool {
	s.mu.Lock()
	g, ok := s.gates[jobID]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn().Str("job_id", jobID).Msg("Decision for job with no pending approval")
		return false
	}
	delete(s.gates, jobID)
	s.mu.Unlock()

	g.decisionCh <- decision

	s.logger.Info().
		Str("job_id", jobID).
		Bool("approved", decision.Approved).
		Str("decided_by", decision.DecidedBy).
		Msg("Approval decision received")

	s.bus.Publish(interfaces.Event{
		Type:       interfaces.EventJobUpdate,
		JobID:      jobID,
		UpdateType: interfaces.UpdateApprovalReceived,
		Message:    decisionMessage(decision),
		Timestamp:  time.Now(),
		Data: map[string]interface{}{
			"approved":   decision.Approved,
			"reason":     decision.Reason,
			"decided_by": decision.DecidedBy,
		},
	})

	return true
}

// Release removes any gate state for the job. Called on every run exit path
// so gates never outlive their job. Idempotent.
func (s *Service) Release(jobID string) {
	s.mu.Lock()
	g, ok := s.gates[jobID]
	if ok {
		delete(s.gates, jobID)
	}
	s.mu.Unlock()

	if ok {
		close(g.released)
		s.logger.Debug().Str("job_id", jobID).Msg("Approval gate released")
	}
}

// ListPending returns gates awaiting a decision, oldest first
func (s *Service) ListPending() []models.PendingApproval {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]models.PendingApproval, 0, len(s.gates))
	for jobID, g := range s.gates {
		pending = append(pending, models.PendingApproval{
			JobID:       jobID,
			Preview:     g.preview,
			RequestedAt: g.requestedAt,
		})
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].RequestedAt.Before(pending[j].RequestedAt)
	})
	return pending
}

// GetPreview returns the preview for a pending gate
func (s *Service) GetPreview(jobID string) (*models.FormPreview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.gates[jobID]
	if !ok {
		return nil, false
	}
	return g.preview, true
}

// Stats reports gate outcomes since startup. Only decisions consumed by
// their waiter are counted.
func (s *Service) Stats() models.ApprovalStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.ApprovalStats{
		Pending:  len(s.gates),
		Approved: s.approved,
		Rejected: s.rejected,
	}
	if total := s.approved + s.rejected; total > 0 {
		stats.ApprovalRatePercentage = float64(s.approved) / float64(total) * 100
	}
	return stats
}

// recordOutcome counts a consumed decision. Counting happens on the
// waiter's side so a decision racing a cancelled gate never shows up
// in Stats.
func (s *Service) recordOutcome(decision models.ApprovalDecision) {
	s.mu.Lock()
	if decision.Approved {
		s.approved++
	} else {
		s.rejected++
	}
	s.mu.Unlock()
}

func (s *Service) removeGate(jobID string) {
	s.mu.Lock()
	delete(s.gates, jobID)
	s.mu.Unlock()
}

func decisionMessage(decision models.ApprovalDecision) string {
	if decision.Approved {
		return "Form submission approved"
	}
	return "Form submission rejected"
}
