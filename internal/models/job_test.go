package models

import (
	"strings"
	"testing"
)

func validRequest() *FormRequest {
	return &FormRequest{
		TargetURL:   "https://support.example.com/tickets/new",
		Subject:     "Account locked out",
		Description: "Cannot log in since this morning, password reset emails never arrive.",
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob(validRequest())

	if job.ID == "" {
		t.Error("Expected job ID to be generated")
	}
	if !strings.HasPrefix(job.ID, "job_") {
		t.Errorf("Expected job_ prefix, got: %s", job.ID)
	}
	if job.Status != JobStatusQueued {
		t.Errorf("Expected queued status, got: %s", job.Status)
	}
	if job.CreatedAt.IsZero() {
		t.Error("Expected created timestamp to be set")
	}
}

func TestJobTransitions(t *testing.T) {
	job := NewJob(validRequest())

	job.MarkRunning()
	if job.Status != JobStatusRunning {
		t.Errorf("Expected running, got: %s", job.Status)
	}
	if job.StartedAt == nil {
		t.Error("Expected started timestamp")
	}

	job.MarkWaitingForApproval()
	if job.Status != JobStatusWaitingForApproval {
		t.Errorf("Expected waiting_for_approval, got: %s", job.Status)
	}

	job.MarkApproved("looks good", "reviewer@example.com")
	if job.Status != JobStatusApproved {
		t.Errorf("Expected approved, got: %s", job.Status)
	}
	if job.Approved == nil || !*job.Approved {
		t.Error("Expected approved flag to be true")
	}

	job.MarkCompleted(&JobResult{Success: true, ConfirmationID: "TICKET-123"})
	if job.Status != JobStatusCompleted {
		t.Errorf("Expected completed, got: %s", job.Status)
	}
	if job.ProgressPercentage != 100 {
		t.Errorf("Expected 100%% progress on completion, got: %d", job.ProgressPercentage)
	}
	if !job.Status.IsTerminal() {
		t.Error("Expected completed to be terminal")
	}
}

func TestJobRejection(t *testing.T) {
	job := NewJob(validRequest())
	job.MarkRunning()
	job.MarkWaitingForApproval()

	job.MarkRejected("wrong target form", "reviewer@example.com")
	if job.Status != JobStatusRejected {
		t.Errorf("Expected rejected, got: %s", job.Status)
	}
	if job.Approved == nil || *job.Approved {
		t.Error("Expected approved flag to be false")
	}
	if !job.Status.IsTerminal() {
		t.Error("Expected rejected to be terminal")
	}

	job.FinalizeRejection(&JobResult{Success: false, Reason: "Rejected by human reviewer"})
	if job.Status != JobStatusRejected {
		t.Errorf("Expected status to stay rejected, got: %s", job.Status)
	}
	if job.CompletedAt == nil {
		t.Error("Expected completed timestamp on rejection")
	}
	if job.Result == nil || job.Result.Success {
		t.Error("Expected unsuccessful result attached")
	}
}

func TestJobFailure(t *testing.T) {
	job := NewJob(validRequest())
	job.MarkRunning()
	job.MarkFailed("browser crashed")

	if job.Status != JobStatusFailed {
		t.Errorf("Expected failed, got: %s", job.Status)
	}
	if job.Error != "browser crashed" {
		t.Errorf("Expected error message preserved, got: %s", job.Error)
	}
	if job.CompletedAt == nil {
		t.Error("Expected completed timestamp on failure")
	}
}

func TestSetProgressMonotonic(t *testing.T) {
	job := NewJob(validRequest())

	job.SetProgress(30, "Filling subject field")
	if job.ProgressPercentage != 30 {
		t.Errorf("Expected 30, got: %d", job.ProgressPercentage)
	}

	// Decreases are ignored, step text still updates
	job.SetProgress(10, "Retrying field")
	if job.ProgressPercentage != 30 {
		t.Errorf("Expected progress to stay at 30, got: %d", job.ProgressPercentage)
	}
	if job.CurrentStep != "Retrying field" {
		t.Errorf("Expected step text to update, got: %s", job.CurrentStep)
	}

	job.SetProgress(150, "Done")
	if job.ProgressPercentage != 100 {
		t.Errorf("Expected progress clamped to 100, got: %d", job.ProgressPercentage)
	}
}

func TestJobJSONRoundTrip(t *testing.T) {
	job := NewJob(validRequest())
	job.MarkRunning()
	job.SetProgress(45, "Detecting form fields")

	data, err := job.ToJSON()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	restored, err := JobFromJSON(data)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if restored.ID != job.ID {
		t.Errorf("Expected ID %s, got: %s", job.ID, restored.ID)
	}
	if restored.Status != JobStatusRunning {
		t.Errorf("Expected running status, got: %s", restored.Status)
	}
	if restored.ProgressPercentage != 45 {
		t.Errorf("Expected progress 45, got: %d", restored.ProgressPercentage)
	}
}
