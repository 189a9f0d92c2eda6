package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Reports
	mux.HandleFunc("/api/reports", s.handleReportsRoute)  // GET (list), POST (create)
	mux.HandleFunc("/api/reports/", s.handleReportRoutes) // subresources /{id}[/generate|status|content|summary]

	// API routes - Callbacks (external report pipeline)
	mux.HandleFunc("/api/callbacks/report", s.app.ReportHandler.CallbackHandler)

	// Published report artifacts
	if s.app.ArtifactService != nil {
		fileServer := http.FileServer(http.Dir(s.app.ArtifactService.Dir()))
		mux.Handle("/artifacts/", http.StripPrefix("/artifacts/", fileServer))
	}

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleReportsRoute dispatches the collection endpoint by method
func (s *Server) handleReportsRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.app.ReportHandler.CreateHandler(w, r)
	case http.MethodGet:
		s.app.ReportHandler.ListHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleReportRoutes routes report subresource requests to the appropriate handler
func (s *Server) handleReportRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// POST /api/reports/{id}/generate
	if r.Method == http.MethodPost && strings.HasSuffix(path, "/generate") {
		s.app.ReportHandler.GenerateHandler(w, r)
		return
	}

	if r.Method == http.MethodGet {
		switch {
		case strings.HasSuffix(path, "/status"):
			s.app.ReportHandler.StatusHandler(w, r)
		case strings.HasSuffix(path, "/content"):
			s.app.ReportHandler.ContentHandler(w, r)
		case strings.HasSuffix(path, "/summary"):
			s.app.ReportHandler.SummaryHandler(w, r)
		default:
			// GET /api/reports/{id}
			s.app.ReportHandler.GetHandler(w, r)
		}
		return
	}

	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
