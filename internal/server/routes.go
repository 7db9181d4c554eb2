package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket routes
	mux.HandleFunc("/ws/job/", s.app.WSHandler.HandleJobSocket)
	mux.HandleFunc("/ws/global", s.app.WSHandler.HandleGlobalSocket)

	// API routes - Form submission
	mux.HandleFunc("/api/v1/form/submit", s.handleFormSubmit)

	// API routes - Jobs
	mux.HandleFunc("/api/v1/jobs/stats", s.app.JobHandler.GetJobStatsHandler)
	mux.HandleFunc("/api/v1/jobs", s.app.JobHandler.ListJobsHandler)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobRoutes) // Handles /api/v1/jobs/{id} and subpaths

	// API routes - Approvals
	mux.HandleFunc("/api/v1/approval/pending", s.app.ApprovalHandler.ListPendingHandler)
	mux.HandleFunc("/api/v1/approval/stats", s.app.ApprovalHandler.StatsHandler)
	mux.HandleFunc("/api/v1/approval/", s.handleApprovalRoutes) // Handles /api/v1/approval/{id}/...

	// API routes - File uploads
	mux.HandleFunc("/api/v1/files/upload", s.handleFileUpload)

	// API routes - System
	mux.HandleFunc("/api/v1/version", s.app.StatusHandler.VersionHandler)
	mux.HandleFunc("/health", s.app.StatusHandler.HealthHandler)
	mux.HandleFunc("/api/admin/shutdown", s.ShutdownHandler) // Graceful shutdown endpoint (dev mode)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.StatusHandler.NotFoundHandler)

	return mux
}

// handleFormSubmit routes /api/v1/form/submit requests
func (s *Server) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"POST": s.app.FormHandler.SubmitHandler,
	})
}

// handleFileUpload routes /api/v1/files/upload requests
func (s *Server) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"POST": s.app.UploadHandler.UploadFileHandler,
	})
}

// handleJobRoutes routes job-related requests to the appropriate handler
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// POST /api/v1/jobs/{id}/screenshot/refresh
	if r.Method == "POST" && strings.HasSuffix(path, "/screenshot/refresh") {
		s.app.ScreenshotHandler.RefreshScreenshotHandler(w, r)
		return
	}

	// GET /api/v1/jobs/{id}/screenshot
	if r.Method == "GET" && strings.HasSuffix(path, "/screenshot") {
		s.app.ScreenshotHandler.GetScreenshotHandler(w, r)
		return
	}

	// GET /api/v1/jobs/{id}
	if r.Method == "GET" && len(path) > len("/api/v1/jobs/") {
		s.app.JobHandler.GetJobHandler(w, r)
		return
	}

	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// handleApprovalRoutes routes /api/v1/approval/{id} requests
func (s *Server) handleApprovalRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// GET /api/v1/approval/{id}/preview
	if r.Method == "GET" && strings.HasSuffix(path, "/preview") {
		s.app.ApprovalHandler.GetPreviewHandler(w, r)
		return
	}

	// POST /api/v1/approval/{id}/approve
	if r.Method == "POST" && strings.HasSuffix(path, "/approve") {
		s.app.ApprovalHandler.DecideHandler(w, r)
		return
	}

	http.Error(w, "Not found", http.StatusNotFound)
}
