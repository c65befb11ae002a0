// Package httpserver serves the console's operational endpoints: Prometheus
// metrics and a health check.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nhle/fleetbell/internal/notifications"
	"github.com/nhle/fleetbell/internal/observability/metrics"
)

// SnapshotSource reports the store state for the health check.
type SnapshotSource interface {
	Snapshot() notifications.Snapshot
}

// Health is the body of GET /healthz.
type Health struct {
	Status      string `json:"status"`
	Loading     bool   `json:"loading"`
	Items       int    `json:"items"`
	UnreadCount int    `json:"unreadCount"`
	Error       string `json:"error,omitempty"`
}

// Router builds the operational routes.
func Router(src SnapshotSource) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", metrics.MetricsHandler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		snap := src.Snapshot()
		h := Health{
			Status:      "ok",
			Loading:     snap.Loading,
			Items:       len(snap.Items),
			UnreadCount: snap.UnreadCount,
		}
		code := http.StatusOK
		if snap.Err != nil {
			h.Status = "degraded"
			h.Error = snap.Err.Error()
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(h)
	})

	return r
}

// Server runs the router on an address until stopped.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// New creates a Server listening on addr.
func New(addr string, src SnapshotSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           Router(src),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start serves in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Info("Starting metrics server", zap.String("address", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server ListenAndServe failed", zap.Error(err))
		}
	}()
}

// Shutdown stops the server, waiting up to five seconds for requests.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
