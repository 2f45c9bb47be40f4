// Package api serves the status and metrics endpoints for the concurrency
// core.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmoralis/cloudbatch/pkg/breaker"
	"github.com/rmoralis/cloudbatch/pkg/controller"
	"github.com/rmoralis/cloudbatch/pkg/logging"
	"github.com/rmoralis/cloudbatch/pkg/pool"
	"github.com/rmoralis/cloudbatch/pkg/resource"
)

// Server exposes read-only views of the core's components over HTTP
type Server struct {
	controller *controller.Controller
	connPool   *pool.Pool
	brk        *breaker.Breaker
	resources  *resource.Collector
	logger     *logging.Logger

	httpServer *http.Server
}

// New builds the status server. Any component may be nil; its endpoint then
// reports "not configured".
func New(addr string, ctrl *controller.Controller, p *pool.Pool, b *breaker.Breaker,
	rc *resource.Collector, logger *logging.Logger) *Server {

	s := &Server{
		controller: ctrl,
		connPool:   p,
		brk:        b,
		resources:  rc,
		logger:     logger,
	}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/status", s.handleStatus).Methods("GET")
	router.HandleFunc("/status/resources", s.handleResources).Methods("GET")

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("status server listening", map[string]interface{}{"addr": s.httpServer.Addr})
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusResponse aggregates every component's snapshot
type statusResponse struct {
	Controller *controller.Snapshot `json:"controller,omitempty"`
	Pool       *pool.Stats          `json:"pool,omitempty"`
	Breaker    *breaker.Snapshot    `json:"breaker,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var resp statusResponse
	if s.controller != nil {
		snap := s.controller.Snapshot()
		resp.Controller = &snap
	}
	if s.connPool != nil {
		stats := s.connPool.Stats()
		resp.Pool = &stats
	}
	if s.brk != nil {
		snap := s.brk.Snapshot()
		resp.Breaker = &snap
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	if s.resources == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "resource collector not configured"})
		return
	}
	snap, err := s.resources.Collect()
	if err != nil {
		s.logger.Error("resource snapshot failed", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot": snap,
		"analysis": resource.Analyze(snap),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
