package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"homework_status_bot/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// SnapshotSource provides the poller state for the health endpoint.
type SnapshotSource interface {
	Snapshot() app.Snapshot
}

// Server exposes /health and /metrics for operators.
type Server struct {
	status SnapshotSource
	log    *logrus.Entry
	server *http.Server
}

func NewServer(addr string, status SnapshotSource, logger *logrus.Entry) *Server {
	s := &Server{status: status, log: logger}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", s.handleHealthCheck)

	return r
}

type healthResponse struct {
	Status     string `json:"status"`
	Cursor     int64  `json:"cursor"`
	LastPollAt string `json:"last_poll_at,omitempty"`
	LastError  string `json:"last_error,omitempty"`
	Delivered  int    `json:"delivered"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	snap := s.status.Snapshot()
	resp := healthResponse{
		Status:    "ok",
		Cursor:    snap.Cursor,
		LastError: snap.LastError,
		Delivered: snap.Delivered,
	}
	if !snap.LastPollAt.IsZero() {
		resp.LastPollAt = snap.LastPollAt.UTC().Format(time.RFC3339)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.WithError(err).Warn("Failed to write health response")
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("addr", s.server.Addr).Info("Ops HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
