package webhook

import (
	"context"
	"time"

	"github.com/kestrelhq/relay-gw/internal/store"
)

// Store is the persistence surface the delivery processor needs.
type Store interface {
	GetWebhook(ctx context.Context, id string) (*store.Webhook, error)
	TouchWebhook(ctx context.Context, id string, at time.Time) error
	SetWebhookError(ctx context.Context, id, message string) error
	RecordEvent(ctx context.Context, e *store.Event) error
	GetDefinition(ctx context.Context, id string) (*store.WorkflowDefinition, error)
	CreateRun(ctx context.Context, r *store.WorkflowRun) error
}

// Config holds ingress server configuration.
type Config struct {
	Listen      string
	MaxBodySize int64
}

// Outcome summarizes one processed delivery for the HTTP response.
type Outcome struct {
	EventID       string
	Status        store.EventStatus
	WorkflowRunID *string
	// Message carries the signature error or failure detail, when any.
	Message string
}

// EventResponse is the JSON response for an accepted delivery.
type EventResponse struct {
	EventID       string  `json:"event_id"`
	Status        string  `json:"status"`
	WorkflowRunID *string `json:"workflow_run_id,omitempty"`
}

// ErrorResponse is the JSON response for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DefaultMaxBodySize limits delivery payloads to 1 MB unless configured.
const DefaultMaxBodySize = 1048576
