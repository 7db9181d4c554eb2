package approval

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/models"
	"github.com/ternarybob/probo/internal/services/events"
)

func newTestService() *Service {
	logger := arbor.NewLogger()
	return NewService(events.NewBus(8, logger), logger)
}

func testPreview(jobID string) *models.FormPreview {
	return models.NewFormPreview(jobID, &models.FormRequest{
		TargetURL:   "https://support.example.com/tickets/new",
		Subject:     "Account locked out",
		Description: "Cannot log in since this morning.",
	})
}

func TestApproveUnblocksWaiter(t *testing.T) {
	service := newTestService()

	var decision models.ApprovalDecision
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		decision, err = service.RequestApproval(context.Background(), "job_a", testPreview("job_a"))
	}()

	waitForPending(t, service, 1)

	ok := service.Decide("job_a", models.ApprovalDecision{
		Approved:  true,
		Reason:    "Preview matches the request",
		DecidedBy: "reviewer@example.com",
	})
	if !ok {
		t.Error("Expected Decide to find a pending gate")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RequestApproval did not unblock after decision")
	}

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if !decision.Approved {
		t.Error("Expected approved decision")
	}
	if decision.DecidedBy != "reviewer@example.com" {
		t.Errorf("Expected decided_by preserved, got: %s", decision.DecidedBy)
	}
}

func TestDecideExactlyOnce(t *testing.T) {
	service := newTestService()

	done := make(chan struct{})
	go func() {
		defer close(done)
		service.RequestApproval(context.Background(), "job_a", testPreview("job_a"))
	}()

	waitForPending(t, service, 1)

	// Fire concurrent decisions, exactly one must win
	var wg sync.WaitGroup
	results := make(chan bool, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- service.Decide("job_a", models.ApprovalDecision{Approved: true})
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("Expected exactly one winning decision, got: %d", wins)
	}

	<-done
}

func TestDecideWithoutPendingGate(t *testing.T) {
	service := newTestService()

	if service.Decide("job_missing", models.ApprovalDecision{Approved: true}) {
		t.Error("Expected false for a job with no pending gate")
	}
}

func TestContextCancellationRemovesGate(t *testing.T) {
	service := newTestService()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := service.RequestApproval(ctx, "job_a", testPreview("job_a"))
		errCh <- err
	}()

	waitForPending(t, service, 1)
	cancel()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("Expected context error")
		}
	case <-time.After(time.Second):
		t.Fatal("RequestApproval did not return after cancellation")
	}

	waitForPending(t, service, 0)
	if service.Decide("job_a", models.ApprovalDecision{Approved: true}) {
		t.Error("Expected no gate after cancellation")
	}
}

func TestReleaseUnblocksWaiter(t *testing.T) {
	service := newTestService()

	errCh := make(chan error, 1)
	go func() {
		_, err := service.RequestApproval(context.Background(), "job_a", testPreview("job_a"))
		errCh <- err
	}()

	waitForPending(t, service, 1)
	service.Release("job_a")

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("Expected error from released gate")
		}
	case <-time.After(time.Second):
		t.Fatal("RequestApproval did not return after release")
	}

	// Release is idempotent
	service.Release("job_a")
}

func TestDuplicateGateRejected(t *testing.T) {
	service := newTestService()

	go service.RequestApproval(context.Background(), "job_a", testPreview("job_a"))
	waitForPending(t, service, 1)

	_, err := service.RequestApproval(context.Background(), "job_a", testPreview("job_a"))
	if err == nil {
		t.Error("Expected error for duplicate gate")
	}

	service.Release("job_a")
}

func TestListPendingAndPreview(t *testing.T) {
	service := newTestService()

	go service.RequestApproval(context.Background(), "job_a", testPreview("job_a"))
	go service.RequestApproval(context.Background(), "job_b", testPreview("job_b"))
	waitForPending(t, service, 2)

	pending := service.ListPending()
	if len(pending) != 2 {
		t.Fatalf("Expected 2 pending, got: %d", len(pending))
	}

	preview, ok := service.GetPreview("job_a")
	if !ok {
		t.Fatal("Expected preview for pending gate")
	}
	if preview.Subject != "Account locked out" {
		t.Errorf("Expected preview subject preserved, got: %s", preview.Subject)
	}

	if _, ok := service.GetPreview("job_missing"); ok {
		t.Error("Expected no preview for unknown job")
	}

	service.Release("job_a")
	service.Release("job_b")
}

func TestStats(t *testing.T) {
	service := newTestService()

	var wg sync.WaitGroup
	for _, jobID := range []string{"job_a", "job_b", "job_c"} {
		id := jobID
		wg.Add(1)
		go func() {
			defer wg.Done()
			service.RequestApproval(context.Background(), id, testPreview(id))
		}()
	}
	waitForPending(t, service, 3)

	service.Decide("job_a", models.ApprovalDecision{Approved: true})
	service.Decide("job_b", models.ApprovalDecision{Approved: true})
	service.Decide("job_c", models.ApprovalDecision{Approved: false})

	// Outcomes are counted when the waiter consumes the decision
	wg.Wait()

	stats := service.Stats()
	if stats.Pending != 0 {
		t.Errorf("Expected 0 pending, got: %d", stats.Pending)
	}
	if stats.Approved != 2 || stats.Rejected != 1 {
		t.Errorf("Expected 2 approved / 1 rejected, got: %d / %d", stats.Approved, stats.Rejected)
	}
	want := float64(2) / float64(3) * 100
	if stats.ApprovalRatePercentage < want-0.01 || stats.ApprovalRatePercentage > want+0.01 {
		t.Errorf("Expected approval rate near %.2f, got: %.2f", want, stats.ApprovalRatePercentage)
	}
}

func TestStatsSkipsUnconsumedDecision(t *testing.T) {
	service := newTestService()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := service.RequestApproval(ctx, "job_a", testPreview("job_a"))
		errCh <- err
	}()

	waitForPending(t, service, 1)
	cancel()
	<-errCh

	// The gate is gone, so the late decision is refused and never counted
	if service.Decide("job_a", models.ApprovalDecision{Approved: true}) {
		t.Error("Expected no gate after cancellation")
	}

	stats := service.Stats()
	if stats.Approved != 0 || stats.Rejected != 0 {
		t.Errorf("Expected no recorded outcomes, got: %d / %d", stats.Approved, stats.Rejected)
	}
	if stats.ApprovalRatePercentage != 0 {
		t.Errorf("Expected zero approval rate, got: %.2f", stats.ApprovalRatePercentage)
	}
}

func waitForPending(t *testing.T, service *Service, count int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(service.ListPending()) == count {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %d pending approvals", count)
}
