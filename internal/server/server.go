// Package server exposes checks and raw predictions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ppiankov/realitycheck/internal/history"
	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/score"
	"github.com/ppiankov/realitycheck/internal/worker"
)

// HistoryReader serves recorded checks
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	Report(ctx context.Context, id string) (*model.Report, error)
}

// Server is the HTTP API
type Server struct {
	checker worker.Checker
	scorer  *score.Scorer
	history HistoryReader // nil when history is off
	logger  *slog.Logger
	config  model.ServerConfig
	version string
	started time.Time
}

// Option configures a Server
type Option func(*Server)

// WithHistory enables the history endpoints
func WithHistory(h HistoryReader) Option {
	return func(s *Server) { s.history = h }
}

// WithVersion sets the version reported by /health
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a server. A nil logger discards events.
func New(cfg model.ServerConfig, checker worker.Checker, scorer *score.Scorer, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if scorer == nil {
		scorer = score.NewScorer(nil)
	}

	s := &Server{
		checker: checker,
		scorer:  scorer,
		logger:  logger,
		config:  cfg,
		version: "dev",
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the route table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.config.WriteTimeout > 0 {
		r.Use(middleware.Timeout(s.config.WriteTimeout))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/check", s.handleCheck)
		r.Get("/predict", s.handlePredict)
		r.Get("/model", s.handleModel)
		r.Get("/examples", s.handleExamples)
		r.Get("/history", s.handleHistory)
		r.Get("/history/{id}", s.handleHistoryReport)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.config.Addr, "version", s.version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
