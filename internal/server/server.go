// Package server exposes the HTTP API: trigger runs, read run history and
// KPIs, stream run events over websocket, and serve Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/fundflow/internal/events"
	"github.com/aristath/fundflow/internal/modules/kpi"
	"github.com/aristath/fundflow/internal/modules/runner"
)

// Config wires the server's collaborators.
type Config struct {
	Log    zerolog.Logger
	Port   int
	Runner *runner.Service
	Runs   *runner.RunRepository
	KPILog *kpi.Logger
	Bus    *events.Bus
	// Paths are the default input locations used when a run request does
	// not override them.
	Paths runner.Paths
}

// Server is the HTTP front end.
type Server struct {
	cfg     Config
	log     zerolog.Logger
	metrics *metrics
	http    *http.Server
}

// New builds the server and its routes.
func New(cfg Config) *Server {
	s := &Server{
		cfg:     cfg,
		log:     cfg.Log.With().Str("component", "server").Logger(),
		metrics: newMetrics(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/health", s.handleHealth)
	r.Post("/api/runs", s.handleTriggerRun)
	r.Get("/api/runs/recent", s.handleRecentRuns)
	r.Get("/api/kpi/recent", s.handleRecentKPI)
	r.Get("/api/kpi/trend", s.handleKPITrend)
	r.Get("/api/events/ws", s.handleEventsWS)
	r.Handle("/metrics", s.metrics.handler())

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
