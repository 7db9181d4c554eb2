package screenshots

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
	"golang.org/x/time/rate"
)

// Store keeps the latest screenshot per job in memory. Frames are
// latest-wins: a new Put replaces the previous frame and bumps the sequence.
type Store struct {
	mu         sync.RWMutex
	shots      map[string]*models.Screenshot
	throttlers map[string]*rate.Limiter
	throttle   time.Duration
	bus        interfaces.EventBus
	logger     arbor.ILogger
}

// NewStore creates a screenshot store. Broadcast notifications for a job are
// throttled to one per throttle interval so rapid captures don't flood the bus.
func NewStore(throttle time.Duration, bus interfaces.EventBus, logger arbor.ILogger) *Store {
	if throttle <= 0 {
		throttle = time.Second
	}
	return &Store{
		shots:      make(map[string]*models.Screenshot),
		throttlers: make(map[string]*rate.Limiter),
		throttle:   throttle,
		bus:        bus,
		logger:     logger,
	}
}

// Put stores the latest frame for a job and publishes a throttled
// screenshot_update event.
func (s *Store) Put(jobID string, png []byte) {
	if len(png) == 0 {
		return
	}

	s.mu.Lock()
	var sequence int64 = 1
	if prev, ok := s.shots[jobID]; ok {
		sequence = prev.Sequence + 1
	}
	shot := &models.Screenshot{
		JobID:      jobID,
		Data:       png,
		Sequence:   sequence,
		CapturedAt: time.Now(),
	}
	s.shots[jobID] = shot

	limiter, ok := s.throttlers[jobID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(s.throttle), 1)
		s.throttlers[jobID] = limiter
	}
	s.mu.Unlock()

	if limiter.Allow() {
		s.bus.Publish(interfaces.Event{
			Type:       interfaces.EventJobUpdate,
			JobID:      jobID,
			UpdateType: interfaces.UpdateScreenshot,
			Message:    "New screenshot available",
			Timestamp:  shot.CapturedAt,
			Data: map[string]interface{}{
				"sequence":    shot.Sequence,
				"captured_at": shot.CapturedAt,
			},
		})
	}
}

// Latest returns the most recent frame for a job
func (s *Store) Latest(jobID string) (*models.Screenshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shot, ok := s.shots[jobID]
	return shot, ok
}

// Remove deletes screenshot state for a job
func (s *Store) Remove(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.shots, jobID)
	delete(s.throttlers, jobID)
}

// JobIDs returns all jobs with a stored frame
func (s *Store) JobIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.shots))
	for id := range s.shots {
		ids = append(ids, id)
	}
	return ids
}

// PruneOlderThan removes frames whose last capture predates the cutoff.
// Returns the number of jobs pruned.
func (s *Store) PruneOlderThan(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for jobID, shot := range s.shots {
		if shot.CapturedAt.Before(cutoff) {
			delete(s.shots, jobID)
			delete(s.throttlers, jobID)
			pruned++
		}
	}

	if pruned > 0 {
		s.logger.Debug().Int("pruned", pruned).Msg("Stale screenshots pruned")
	}
	return pruned
}
