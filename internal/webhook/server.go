// Package webhook implements the public webhook ingress and the
// per-delivery processing pipeline.
//
// # Request Flow
//
//  1. HTTP POST arrives at /api/webhooks/{webhookID}/events
//  2. Body size checked (reject with 413 if too large)
//  3. Raw body preserved byte-exact; headers lower-cased
//  4. Signature validated per the webhook's declared source
//  5. Delivery processed into exactly one event record
//  6. 202 Accepted with event id (403 for invalid signatures)
//
// # Error Responses
//
// - 403 Forbidden: invalid or missing signature
// - 404 Not Found: unknown webhook id
// - 413 Payload Too Large: body exceeds the configured limit
// - 500 Internal Server Error: persistence failure
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kestrelhq/relay-gw/internal/store"
)

// Server is the public ingress HTTP server.
type Server struct {
	config    Config
	processor *Processor
	logger    *slog.Logger
	server    *http.Server
}

// NewServer creates the ingress server.
func NewServer(config Config, processor *Processor, logger *slog.Logger) *Server {
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	return &Server{
		config:    config,
		processor: processor,
		logger:    logger,
	}
}

// Start starts the ingress HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("ingress server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("ingress server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ingress server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("ingress server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Post("/api/webhooks/{webhookID}/events", s.handleDelivery)

	return r
}

// loggingMiddleware logs HTTP requests (excludes payload content).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("ingress request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// handleDelivery accepts one webhook delivery. The body is read raw and
// passed through untouched: signatures are computed over the exact bytes
// received, not over re-serialized JSON.
func (s *Server) handleDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	webhookID := chi.URLParam(r, "webhookID")

	limitedReader := io.LimitReader(r.Body, s.config.MaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	if int64(len(body)) > s.config.MaxBodySize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	outcome, err := s.processor.Process(ctx, webhookID, body, lowerHeaders(r.Header))
	if err != nil {
		if errors.Is(err, store.ErrWebhookNotFound) {
			s.respondError(w, http.StatusNotFound, "webhook not found")
			return
		}
		s.logger.Error("delivery processing failed",
			"webhook_id", webhookID,
			"error", err,
		)
		s.respondError(w, http.StatusInternalServerError, "failed to process delivery")
		return
	}

	if outcome.Status == store.EventInvalidSignature {
		s.respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	s.respondJSON(w, http.StatusAccepted, EventResponse{
		EventID:       outcome.EventID,
		Status:        string(outcome.Status),
		WorkflowRunID: outcome.WorkflowRunID,
	})
}

// lowerHeaders flattens request headers into a lower-cased lookup map,
// the form the signature validators expect.
func lowerHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if len(values) == 0 {
			continue
		}
		out[strings.ToLower(name)] = values[0]
	}
	return out
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}
