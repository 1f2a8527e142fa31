// Package store persists webhooks, delivery events, workflow
// definitions, and workflow runs in SQLite.
package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/kestrelhq/relay-gw/internal/mapping"
	"github.com/kestrelhq/relay-gw/internal/signature"
)

// WebhookStatus is the lifecycle state of a webhook.
type WebhookStatus string

const (
	WebhookActive WebhookStatus = "active"
	WebhookDraft  WebhookStatus = "draft"
	WebhookPaused WebhookStatus = "paused"
	WebhookError  WebhookStatus = "error"
)

// Known reports whether s is a valid webhook status.
func (s WebhookStatus) Known() bool {
	switch s {
	case WebhookActive, WebhookDraft, WebhookPaused, WebhookError:
		return true
	}
	return false
}

// Webhook is a configured inbound webhook.
type Webhook struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Source          signature.Source `json:"source"`
	Secret          string           `json:"secret"`
	Status          WebhookStatus    `json:"status"`
	Config          mapping.Config   `json:"config"`
	ErrorMessage    *string          `json:"error_message,omitempty"`
	LastTriggeredAt *time.Time       `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// EventStatus is the terminal status of one processed delivery.
type EventStatus string

const (
	EventTest             EventStatus = "test"
	EventSuccess          EventStatus = "success"
	EventFiltered         EventStatus = "filtered"
	EventInvalidSignature EventStatus = "invalid_signature"
	EventFailed           EventStatus = "failed"
	EventError            EventStatus = "error"
)

// Event records one webhook delivery and the decision made for it.
type Event struct {
	ID            string             `json:"id"`
	WebhookID     string             `json:"webhook_id"`
	Status        EventStatus        `json:"status"`
	Payload       json.RawMessage    `json:"payload,omitempty"`
	Debug         *mapping.DebugInfo `json:"debug,omitempty"`
	ConfigHash    string             `json:"config_hash,omitempty"`
	WorkflowRunID *string            `json:"workflow_run_id,omitempty"`
	Error         *string            `json:"error,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// WorkflowDefinition names a workflow a mapping can target. Execution
// lives elsewhere; the gateway only checks existence before creating a
// run.
type WorkflowDefinition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RunStatus is the lifecycle state of a workflow run record.
type RunStatus string

const (
	RunPending RunStatus = "pending"
)

// WorkflowRun is the record created for a successful delivery. The
// gateway creates runs in pending state and never advances them.
type WorkflowRun struct {
	ID                   string    `json:"id"`
	WebhookID            string    `json:"webhook_id,omitempty"`
	EventID              string    `json:"event_id,omitempty"`
	Name                 string    `json:"name"`
	SpecTypeID           string    `json:"spec_type_id"`
	WorkflowDefinitionID string    `json:"workflow_definition_id"`
	SpecContent          string    `json:"spec_content,omitempty"`
	Status               RunStatus `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
}

var (
	ErrWebhookNotFound    = errors.New("webhook not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrDefinitionNotFound = errors.New("workflow definition not found")
	ErrRunNotFound        = errors.New("workflow run not found")
)
