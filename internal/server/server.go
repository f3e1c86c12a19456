// Package server provides the HTTP and WebSocket server for the meme
// tracker.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/memetracker/internal/capture"
	"github.com/ayusman/memetracker/internal/detector"
	"github.com/ayusman/memetracker/internal/expression"
	"github.com/ayusman/memetracker/internal/server/api"
	"github.com/ayusman/memetracker/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir  string
	UploadsDir string
	Store      *store.Store
	Camera     capture.Camera
	Builder    *detector.BundleBuilder
	Registry   *expression.Registry
}

// Server represents the HTTP server for the meme tracker application.
type Server struct {
	config   Config
	registry *expression.Registry
	mux      *http.ServeMux
	start    time.Time
}

// New creates a new Server with the given configuration. A Registry is
// created when none is supplied.
func New(config Config) *Server {
	registry := config.Registry
	if registry == nil {
		registry = expression.NewRegistry()
	}

	s := &Server{
		config:   config,
		registry: registry,
		mux:      http.NewServeMux(),
		start:    time.Now(),
	}
	s.setupRoutes()
	return s
}

// Registry returns the session registry the server routes frames
// through.
func (s *Server) Registry() *expression.Registry {
	return s.registry
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		imagesHandler := api.NewImagesHandler(s.config.Store, s.registry, s.config.UploadsDir)
		s.mux.Handle("/api/images", imagesHandler)
		s.mux.Handle("/api/images/", imagesHandler)

		presetsHandler := api.NewPresetsHandler(s.config.Store, s.registry)
		s.mux.Handle("/api/presets", presetsHandler)
		s.mux.Handle("/api/presets/", presetsHandler)
	}

	// Register the frame-processing WebSocket endpoint if detectors are
	// configured
	if s.config.Builder != nil {
		frameHandler := NewFrameHandler(s.config.Builder, s.registry, s.config.Store)
		s.mux.Handle("/ws/", frameHandler)
	}

	// Register camera preview endpoint if Camera is configured
	if s.config.Camera != nil {
		streamHandler := NewStreamHandler(s.config.Camera)
		s.mux.Handle("/api/stream", streamHandler)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status":   "ok",
		"uptime":   uptime.String(),
		"sessions": s.registry.Len(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
