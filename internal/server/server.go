// Package server exposes the dashboard and a small JSON API in the
// long-running mode.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"vpnspectra/internal/config"
	"vpnspectra/internal/health"
	"vpnspectra/internal/model"
)

// Server serves the rendered report, the stats API and the live feed.
type Server struct {
	httpServer *http.Server
	reportPath string
	hub        *Hub

	mu     sync.RWMutex
	latest *model.AggregatedStats
}

// New creates the server and registers its routes.
func New(cfg config.APIConfig, reportPath string) *Server {
	s := &Server{
		reportPath: reportPath,
		hub:        NewHub(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.reportHandler).Methods("GET")
	r.HandleFunc("/api/v1/stats", s.statsHandler).Methods("GET")
	r.HandleFunc("/api/v1/health", s.healthHandler).Methods("GET")
	r.HandleFunc("/api/v1/live", s.hub.ServeWS)

	s.httpServer = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}
	return s
}

// UpdateStats records the freshest aggregation result and broadcasts it to
// live-feed subscribers. Wire it as the poller's OnStats hook.
func (s *Server) UpdateStats(stats *model.AggregatedStats) {
	s.mu.Lock()
	s.latest = stats
	s.mu.Unlock()
	s.hub.Broadcast(stats)
}

// Start runs the HTTP server. It returns once the listener is up; serve
// errors other than a clean shutdown are fatal.
func (s *Server) Start() {
	go func() {
		log.Printf("API server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", s.httpServer.Addr, err)
		}
	}()
	s.hub.Start()
}

// Shutdown stops the live feed and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Stop()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.reportPath)
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest == nil {
		http.Error(w, "no aggregation pass has completed yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, latest)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	host, err := health.Collect()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, host)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
