// Package server provides the HTTP server for the overlay viewer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/thuglens/internal/display"
	"github.com/ayusman/thuglens/internal/logging"
	"github.com/ayusman/thuglens/internal/server/api"
	"github.com/ayusman/thuglens/internal/store"
)

// FrameSource publishes composed frames.
type FrameSource interface {
	Latest() *display.Frame
	Updated() <-chan struct{}
}

// Controller is everything the API can change at runtime.
type Controller interface {
	api.AccessoryController
	api.SnapshotTaker
}

// Config holds the server configuration.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Frames     FrameSource
	Controller Controller
	Log        logrus.FieldLogger
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	log    logrus.FieldLogger
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	log := config.Log
	if log == nil {
		log = logging.Discard()
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    log.WithField("component", "server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Controller != nil {
		accessories := api.NewAccessoryHandler(s.config.Controller)
		s.mux.Handle("/api/accessories", accessories)
		s.mux.Handle("/api/accessories/", accessories)
		s.mux.Handle("/api/overlay", api.NewOverlayHandler(s.config.Controller))

		if s.config.Store != nil {
			snapshots := api.NewSnapshotHandler(s.config.Store, s.config.Controller)
			s.mux.Handle("/api/snapshots", snapshots)
			s.mux.Handle("/api/snapshots/", snapshots)
		}
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames, s.log))
		s.mux.Handle("/api/placements", NewPlacementsHandler(s.config.Frames, s.log))
	}

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

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Frames != nil {
		if f := s.config.Frames.Latest(); f != nil {
			response["frame"] = f.Seq
			response["face"] = f.HasFace
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address and blocks
// until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.WithField("addr", addr).Info("listening")

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
