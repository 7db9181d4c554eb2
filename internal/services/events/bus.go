package events

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/interfaces"
)

const defaultSubscriberBuffer = 64

// Bus implements EventBus with buffered channel fan-out.
// Publish never blocks: subscribers that fall behind their buffer drop events.
type Bus struct {
	mu         sync.Mutex
	jobSubs    map[string]map[int]chan interfaces.Event
	globalSubs map[int]chan interfaces.Event
	nextID     int
	buffer     int
	closed     bool
	logger     arbor.ILogger
}

// NewBus creates an event bus. A bufferSize of zero uses the default.
func NewBus(bufferSize int, logger arbor.ILogger) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultSubscriberBuffer
	}
	return &Bus{
		jobSubs:    make(map[string]map[int]chan interfaces.Event),
		globalSubs: make(map[int]chan interfaces.Event),
		buffer:     bufferSize,
		logger:     logger,
	}
}

// SubscribeJob registers a subscriber for a single job's events
func (b *Bus) SubscribeJob(jobID string) (<-chan interfaces.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan interfaces.Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++

	if b.jobSubs[jobID] == nil {
		b.jobSubs[jobID] = make(map[int]chan interfaces.Event)
	}
	b.jobSubs[jobID][id] = ch

	b.logger.Debug().
		Str("job_id", jobID).
		Int("subscriber_count", len(b.jobSubs[jobID])).
		Msg("Job subscriber registered")

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.jobSubs[jobID]; ok {
			if sub, ok := subs[id]; ok {
				delete(subs, id)
				close(sub)
			}
			if len(subs) == 0 {
				delete(b.jobSubs, jobID)
			}
		}
	}
}

// SubscribeGlobal registers a subscriber for every published event
func (b *Bus) SubscribeGlobal() (<-chan interfaces.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan interfaces.Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.globalSubs[id] = ch

	b.logger.Debug().
		Int("subscriber_count", len(b.globalSubs)).
		Msg("Global subscriber registered")

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.globalSubs[id]; ok {
			delete(b.globalSubs, id)
			close(sub)
		}
	}
}

// Publish delivers an event to the job's subscribers and all global
// subscribers. Delivery order per subscriber matches publish order.
func (b *Bus) Publish(event interfaces.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	if event.JobID != "" {
		for _, ch := range b.jobSubs[event.JobID] {
			b.send(ch, event)
		}
	}
	for _, ch := range b.globalSubs {
		b.send(ch, event)
	}
}

// send performs a non-blocking delivery, dropping when the buffer is full
func (b *Bus) send(ch chan interfaces.Event, event interfaces.Event) {
	select {
	case ch <- event:
	default:
		b.logger.Warn().
			Str("job_id", event.JobID).
			Str("update_type", string(event.UpdateType)).
			Msg("Subscriber buffer full, dropping event")
	}
}

// Close shuts the bus down and closes all subscriber channels
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for jobID, subs := range b.jobSubs {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.jobSubs, jobID)
	}
	for id, ch := range b.globalSubs {
		close(ch)
		delete(b.globalSubs, id)
	}

	b.logger.Info().Msg("Event bus closed")
}

// JobUpdate builds a job_update event
func JobUpdate(jobID string, updateType interfaces.UpdateType, message string, data map[string]interface{}) interfaces.Event {
	return interfaces.Event{
		Type:       interfaces.EventJobUpdate,
		JobID:      jobID,
		UpdateType: updateType,
		Message:    message,
		Timestamp:  time.Now(),
		Data:       data,
	}
}

// SystemEvent builds a system event
func SystemEvent(message string, data map[string]interface{}) interfaces.Event {
	return interfaces.Event{
		Type:      interfaces.EventSystem,
		Message:   message,
		Timestamp: time.Now(),
		Data:      data,
	}
}
