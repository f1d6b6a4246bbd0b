// Package server exposes the dashboard pipeline over a thin JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/drewdunne/pullboard/internal/config"
	"github.com/drewdunne/pullboard/internal/dashboard"
	"github.com/drewdunne/pullboard/internal/metrics"
)

// Server is the HTTP server for pullboard.
type Server struct {
	cfg    *config.Config
	log    *zap.Logger
	svc    *dashboard.Service
	router chi.Router
}

// New creates a new Server with the given config, logger and service.
func New(cfg *config.Config, log *zap.Logger, svc *dashboard.Service) *Server {
	s := &Server{
		cfg: cfg,
		log: log,
		svc: svc,
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// routes sets up the HTTP routes.
func (s *Server) routes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/pulls", s.handlePulls)
		r.Get("/pulls/{owner}/{repo}/{number}", s.handlePull)
		r.Get("/labels", s.handleLabels)
		r.Get("/repos", s.handleRepos)
		r.Get("/repos/search", s.handleSearchRepos)
		r.Get("/repos/{owner}/{repo}", s.handleRepo)
		r.Get("/ratelimit", s.handleRateLimit)
	})

	s.router = r
}

// Run starts the server and blocks until ctx is canceled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting http server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(s.cfg.Server.ShutdownTimeoutSeconds)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.log, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMetrics reports the operational counters.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.log, http.StatusOK, metrics.Get())
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", zap.Error(err))
	}
}
