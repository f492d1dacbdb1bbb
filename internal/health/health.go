package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/market-digest/pkg/logger"
	"github.com/selivandex/market-digest/pkg/models"
)

// Schedule reports when the next digest run is due.
type Schedule interface {
	Next() time.Time
}

// RunTracker exposes the result of the most recent digest run.
type RunTracker interface {
	LastStatus() *models.RunStatus
}

// Server provides liveness and readiness endpoints for the scheduler daemon
type Server struct {
	server    *http.Server
	schedule  Schedule
	runs      RunTracker
	ready     bool
	readyMu   sync.RWMutex
	startTime time.Time
}

// HealthStatus represents process health
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ReadinessStatus represents scheduler readiness
type ReadinessStatus struct {
	Ready     bool              `json:"ready"`
	Timestamp string            `json:"timestamp"`
	NextRun   string            `json:"next_run,omitempty"`
	LastRun   *models.RunStatus `json:"last_run,omitempty"`
	Checks    map[string]string `json:"checks"`
}

// NewServer creates new health check server
func NewServer(addr string, schedule Schedule, runs RunTracker) *Server {
	mux := http.NewServeMux()

	s := &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		schedule:  schedule,
		runs:      runs,
		startTime: time.Now(),
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReadiness)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReadiness)

	return s
}

// Handler returns the HTTP handler serving the probes.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the health check server
func (s *Server) Start() error {
	logger.Info("health check server starting",
		zap.String("addr", s.server.Addr),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("stopping health check server...")
	return s.server.Shutdown(ctx)
}

// SetReady marks the service as ready
func (s *Server) SetReady(ready bool) {
	s.readyMu.Lock()
	defer s.readyMu.Unlock()
	s.ready = ready

	if ready {
		logger.Info("✅ service marked as READY")
	} else {
		logger.Warn("⚠️ service marked as NOT READY")
	}
}

// handleHealth answers 200 while the process is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
	}

	if r.URL.Query().Get("verbose") == "true" {
		status.Checks = s.checks()
	}

	writeJSON(w, http.StatusOK, status)
}

// handleReadiness answers 200 once the scheduler is running.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	s.readyMu.RLock()
	ready := s.ready
	s.readyMu.RUnlock()

	status := ReadinessStatus{
		Ready:     ready,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    s.checks(),
	}
	if s.schedule != nil {
		if next := s.schedule.Next(); !next.IsZero() {
			status.NextRun = next.Format(time.RFC3339)
		}
	}
	if s.runs != nil {
		status.LastRun = s.runs.LastStatus()
	}

	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) checks() map[string]string {
	checks := make(map[string]string)

	if s.schedule == nil || s.schedule.Next().IsZero() {
		checks["scheduler"] = "not running"
	} else {
		checks["scheduler"] = "running"
	}

	var last *models.RunStatus
	if s.runs != nil {
		last = s.runs.LastStatus()
	}
	switch {
	case last == nil:
		checks["last_run"] = "none yet"
	case last.MessagingSent:
		checks["last_run"] = "delivered"
	default:
		checks["last_run"] = "not delivered: " + last.DistributionResult
	}

	return checks
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write health response", zap.Error(err))
	}
}
