package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/app"
	"github.com/ternarybob/probo/internal/handlers"
	"github.com/ternarybob/probo/internal/services/approval"
	"github.com/ternarybob/probo/internal/services/events"
)

func newApprovalTestServer(t *testing.T) *Server {
	t.Helper()
	logger := arbor.NewLogger()
	bus := events.NewBus(8, logger)
	t.Cleanup(bus.Close)

	approvals := approval.NewService(bus, logger)
	return &Server{
		app: &app.App{
			Logger:          logger,
			ApprovalHandler: handlers.NewApprovalHandler(approvals, logger),
		},
	}
}

func TestApprovalRoutesUnmatchedPathReturns404(t *testing.T) {
	s := newApprovalTestServer(t)

	// Exact paths like /pending and /stats are routed by the mux before
	// this sub-router runs, so anything landing here without a known
	// suffix gets an explicit 404 rather than an empty 200.
	for _, path := range []string{
		"/api/v1/approval/job_x",
		"/api/v1/approval/pending",
		"/api/v1/approval/stats",
	} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		s.handleApprovalRoutes(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("Path %s: expected 404, got: %d", path, rec.Code)
		}
		if rec.Body.Len() == 0 {
			t.Errorf("Path %s: expected an error body", path)
		}
	}
}

func TestApprovalRoutesDispatchBySuffix(t *testing.T) {
	s := newApprovalTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/approval/job_x/preview", nil)
	rec := httptest.NewRecorder()
	s.handleApprovalRoutes(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for job without a pending gate, got: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No pending approval") {
		t.Errorf("Expected handler error body, got: %s", rec.Body.String())
	}

	req = httptest.NewRequest("POST", "/api/v1/approval/job_x/approve", strings.NewReader(`{"approved":true}`))
	rec = httptest.NewRecorder()
	s.handleApprovalRoutes(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for job without a pending gate, got: %d", rec.Code)
	}
}
