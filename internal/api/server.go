// Package api implements the authenticated admin HTTP API: webhook CRUD,
// event and run inspection, and the SSE activity stream.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kestrelhq/relay-gw/internal/events"
	"github.com/kestrelhq/relay-gw/internal/store"
)

// Store is the persistence surface the admin API needs.
type Store interface {
	CreateWebhook(ctx context.Context, w *store.Webhook) error
	GetWebhook(ctx context.Context, id string) (*store.Webhook, error)
	ListWebhooks(ctx context.Context) ([]*store.Webhook, error)
	UpdateWebhook(ctx context.Context, w *store.Webhook) error
	DeleteWebhook(ctx context.Context, id string) error
	GetEvent(ctx context.Context, id string) (*store.Event, error)
	ListEvents(ctx context.Context, webhookID string, limit int) ([]*store.Event, error)
	GetRun(ctx context.Context, id string) (*store.WorkflowRun, error)
	ListRuns(ctx context.Context, limit int) ([]*store.WorkflowRun, error)
	ListDefinitions(ctx context.Context) ([]*store.WorkflowDefinition, error)
}

// Config holds API server configuration.
type Config struct {
	Listen string
	// APIKey is the bearer token required on every /api route.
	APIKey string
}

// Server represents the admin HTTP API server.
type Server struct {
	config    Config
	store     Store
	hub       *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new API server instance.
func New(config Config, st Store, hub *events.Hub, logger *slog.Logger) *Server {
	return &Server{
		config:    config,
		store:     st,
		hub:       hub,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start starts the HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoint.
	r.Get("/healthz", s.handleHealthz)

	// Protected API.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/api/webhooks", s.handleListWebhooks)
		r.Post("/api/webhooks", s.handleCreateWebhook)
		r.Get("/api/webhooks/{webhookID}", s.handleGetWebhook)
		r.Patch("/api/webhooks/{webhookID}", s.handleUpdateWebhook)
		r.Delete("/api/webhooks/{webhookID}", s.handleDeleteWebhook)
		r.Post("/api/webhooks/{webhookID}/rotate-secret", s.handleRotateSecret)
		r.Get("/api/webhooks/{webhookID}/events", s.handleListWebhookEvents)

		r.Get("/api/events/stream", s.handleEventStream)
		r.Get("/api/events/{eventID}", s.handleGetEvent)

		r.Get("/api/runs", s.handleListRuns)
		r.Get("/api/runs/{runID}", s.handleGetRun)

		r.Get("/api/definitions", s.handleListDefinitions)
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	})
}
