package interfaces

import (
	"time"
)

// EventType distinguishes job-scoped updates from system messages
type EventType string

const (
	EventJobUpdate EventType = "job_update"
	EventSystem    EventType = "system"
)

// UpdateType identifies what changed within a job event
type UpdateType string

const (
	UpdateStatusChange         UpdateType = "status_change"
	UpdateProgress             UpdateType = "progress"
	UpdateApprovalRequired     UpdateType = "approval_required"
	UpdateApprovalReceived     UpdateType = "approval_received"
	UpdateScreenshot           UpdateType = "screenshot_update"
	UpdateScreenshotRefreshReq UpdateType = "screenshot_refresh_requested"
	UpdateCompletion           UpdateType = "completion"
	UpdateError                UpdateType = "error"
)

// Event is a single job or system notification
type Event struct {
	Type       EventType              `json:"type"`
	JobID      string                 `json:"job_id,omitempty"`
	UpdateType UpdateType             `json:"update_type,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// EventBus fans events out to job-scoped and global subscribers.
// Per-subscriber delivery order matches publish order; subscribers that
// fall behind their channel buffer lose events rather than block publishers.
type EventBus interface {
	// SubscribeJob returns a channel receiving events for one job.
	// The returned func unsubscribes and closes the channel.
	SubscribeJob(jobID string) (<-chan Event, func())

	// SubscribeGlobal returns a channel receiving every published event.
	SubscribeGlobal() (<-chan Event, func())

	// Publish delivers an event to matching subscribers. No-op after Close.
	Publish(event Event)

	// Close shuts the bus down and closes all subscriber channels.
	Close()
}
