package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a form submission job
type JobStatus string

const (
	JobStatusQueued             JobStatus = "queued"
	JobStatusRunning            JobStatus = "running"
	JobStatusWaitingForApproval JobStatus = "waiting_for_approval"
	JobStatusApproved           JobStatus = "approved"
	JobStatusRejected           JobStatus = "rejected"
	JobStatusCompleted          JobStatus = "completed"
	JobStatusFailed             JobStatus = "failed"
)

// IsTerminal returns true when the job can no longer change state.
// Rejection ends the job; a rejected job never proceeds to completed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusRejected
}

// IsActive returns true while the job still has work in flight
func (s JobStatus) IsActive() bool {
	return !s.IsTerminal()
}

// Job is a persisted form submission job
type Job struct {
	ID                 string       `json:"job_id" badgerhold:"key"`
	Status             JobStatus    `json:"status" badgerhold:"index"`
	Request            *FormRequest `json:"request_data"`
	CreatedAt          time.Time    `json:"created_at"`
	StartedAt          *time.Time   `json:"started_at,omitempty"`
	CompletedAt        *time.Time   `json:"completed_at,omitempty"`
	ProgressPercentage int          `json:"progress_percentage"`
	CurrentStep        string       `json:"current_step,omitempty"`
	Result             *JobResult   `json:"result,omitempty"`
	Error              string       `json:"error,omitempty"`
	Approved           *bool        `json:"approved,omitempty"`
	ApprovalReason     string       `json:"approval_reason,omitempty"`
	ApprovedBy         string       `json:"approved_by,omitempty"`
	EngineName         string       `json:"engine,omitempty"`
	HasScreenshot      bool         `json:"has_screenshot"`
}

// NewJob creates a queued job for the given request
func NewJob(request *FormRequest) *Job {
	return &Job{
		ID:        "job_" + uuid.New().String(),
		Status:    JobStatusQueued,
		Request:   request,
		CreatedAt: time.Now(),
	}
}

// MarkRunning transitions the job to running
func (j *Job) MarkRunning() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.CurrentStep = "Starting browser session"
}

// MarkWaitingForApproval transitions the job to the approval gate
func (j *Job) MarkWaitingForApproval() {
	j.Status = JobStatusWaitingForApproval
	j.CurrentStep = "Waiting for human approval"
}

// MarkApproved records an approval decision and resumes the job
func (j *Job) MarkApproved(reason, approvedBy string) {
	approved := true
	j.Status = JobStatusApproved
	j.Approved = &approved
	j.ApprovalReason = reason
	j.ApprovedBy = approvedBy
	j.CurrentStep = "Approved, submitting form"
}

// MarkRejected records a rejection decision. Rejected is a terminal status.
func (j *Job) MarkRejected(reason, decidedBy string) {
	approved := false
	j.Status = JobStatusRejected
	j.Approved = &approved
	j.ApprovalReason = reason
	j.ApprovedBy = decidedBy
	j.CurrentStep = "Rejected by human reviewer"
}

// FinalizeRejection attaches the engine's outcome to a rejected job.
// The status stays rejected.
func (j *Job) FinalizeRejection(result *JobResult) {
	now := time.Now()
	j.CompletedAt = &now
	j.Result = result
}

// MarkCompleted transitions the job to completed with its result
func (j *Job) MarkCompleted(result *JobResult) {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.Result = result
	j.ProgressPercentage = 100
	j.CurrentStep = "Completed"
}

// MarkFailed transitions the job to failed with an error message
func (j *Job) MarkFailed(errMsg string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = errMsg
	j.CurrentStep = "Failed"
}

// SetProgress updates progress. Decreasing percentages are ignored so
// concurrent reporters cannot walk progress backwards.
func (j *Job) SetProgress(percentage int, step string) {
	if percentage < j.ProgressPercentage {
		if step != "" {
			j.CurrentStep = step
		}
		return
	}
	if percentage > 100 {
		percentage = 100
	}
	j.ProgressPercentage = percentage
	if step != "" {
		j.CurrentStep = step
	}
}

// ToJSON serializes the job
func (j *Job) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

// JobFromJSON deserializes a job
func JobFromJSON(data []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// JobResult is the outcome of an engine run
type JobResult struct {
	Success        bool              `json:"success"`
	Message        string            `json:"message,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	ConfirmationID string            `json:"confirmation_id,omitempty"`
	FormData       map[string]string `json:"form_data,omitempty"`
	SubmittedAt    *time.Time        `json:"submitted_at,omitempty"`
}

// JobStats summarizes job counts by status
type JobStats struct {
	TotalJobs     int `json:"total_jobs"`
	QueuedJobs    int `json:"queued_jobs"`
	RunningJobs   int `json:"running_jobs"`
	WaitingJobs   int `json:"waiting_for_approval_jobs"`
	RejectedJobs  int `json:"rejected_jobs"`
	CompletedJobs int `json:"completed_jobs"`
	FailedJobs    int `json:"failed_jobs"`
	ActiveJobs    int `json:"active_jobs"`
}
