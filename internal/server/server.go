// Package server provides the HTTP API of the poi trick recognizer.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/poivr/internal/app"
	"github.com/ayusman/poivr/internal/config"
	"github.com/ayusman/poivr/internal/plugin"
	"github.com/ayusman/poivr/internal/server/api"
	"github.com/ayusman/poivr/internal/store"
)

// Config holds the server configuration. Routes whose dependency is nil are
// not registered.
type Config struct {
	StaticDir string
	Settings  *config.Config
	App       *app.App
	Store     *store.Store
	TrickLog  *store.TrickLog
	Plugins   *plugin.Manager
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	feed   *TrickFeed
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Settings != nil {
		s.mux.HandleFunc("/api/config", s.handleConfig)
	}

	if s.config.App != nil {
		s.mux.Handle("/api/play", api.NewPlayHandler(s.config.App))
		s.mux.Handle("/api/frames", NewFrameHandler(s.config.App))

		s.feed = NewTrickFeed()
		s.config.App.Subscribe(s.feed)
		s.mux.Handle("/api/tricks", s.feed)
	}

	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store, s.config.TrickLog)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
	}

	if s.config.Plugins != nil {
		plugins := api.NewPluginHandler(s.config.Plugins)
		s.mux.Handle("/api/plugins", plugins)
		s.mux.Handle("/api/plugins/", plugins)
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

// Feed returns the live trick feed, or nil if no App is configured.
func (s *Server) Feed() *TrickFeed {
	return s.feed
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		response["enabled"] = s.config.App.IsEnabled()
		response["running"] = s.config.App.Running()
	}

	writeJSON(w, response)
}

// handleConfig handles GET requests to /api/config.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, s.config.Settings)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
