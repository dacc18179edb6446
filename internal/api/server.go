// Package api exposes the HTTP control surface: read-only projections over
// the state database plus the enqueue operations. Cluster-internal, no auth.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nomadcxx/transcodarr/internal/database"
	"github.com/Nomadcxx/transcodarr/internal/logging"
	_ "github.com/Nomadcxx/transcodarr/internal/metrics" // register collectors served at /metrics
	"github.com/Nomadcxx/transcodarr/internal/queue"
	"github.com/Nomadcxx/transcodarr/internal/transcode"
)

// Server hosts the control surface.
type Server struct {
	httpServer *http.Server
	db         *database.DB
	admission  *queue.Admission
	worker     *transcode.Worker
	logger     *logging.Logger
	version    string
	startTime  time.Time
}

// NewServer wires the handlers and the underlying http.Server.
func NewServer(addr string, db *database.DB, admission *queue.Admission, worker *transcode.Worker, version string, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Server{
		db:        db,
		admission: admission,
		worker:    worker,
		logger:    logger,
		version:   version,
		startTime: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/version", s.handleVersion)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/list", s.handleList)
	r.Get("/list/{uuid}", s.handleListOne)
	r.Get("/status", s.handleStatus)
	r.Post("/request/enqueue/best", s.handleEnqueueBest)
	r.Post("/request/enqueue/{uuid}", s.handleEnqueue)
	r.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start blocks serving until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("api", "Control surface listening", logging.F("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server error: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
