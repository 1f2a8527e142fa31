package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelhq/relay-gw/internal/condition"
	"github.com/kestrelhq/relay-gw/internal/events"
	"github.com/kestrelhq/relay-gw/internal/mapping"
	"github.com/kestrelhq/relay-gw/internal/signature"
	"github.com/kestrelhq/relay-gw/internal/store"
	"github.com/kestrelhq/relay-gw/internal/template"
)

// Processor turns one webhook delivery into exactly one event record and,
// on the success path, one workflow run.
//
// Processing is strictly sequential and short-circuits on the first
// failing check: signature, webhook status, webhook-level filter, mapping
// resolution, workflow definition lookup, run creation. Every terminal
// writes one event; all terminals except test, error, and invalid
// signature also update last_triggered_at.
type Processor struct {
	store  Store
	hub    *events.Hub
	logger *slog.Logger
}

func NewProcessor(st Store, hub *events.Hub, logger *slog.Logger) *Processor {
	return &Processor{store: st, hub: hub, logger: logger}
}

// Process handles one delivery. The body must be the exact received
// bytes (signatures are computed over them) and headers must be
// lower-cased. The returned error is reserved for infrastructure
// failures (webhook lookup, event persistence); every decision outcome,
// including failures, is an Outcome.
func (p *Processor) Process(ctx context.Context, webhookID string, body []byte, headers map[string]string) (out *Outcome, err error) {
	wh, err := p.store.GetWebhook(ctx, webhookID)
	if err != nil {
		return nil, err
	}

	// A panic anywhere below is a failed delivery, never a crashed
	// process. The event trail must show it.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("delivery processing panic", "webhook_id", webhookID, "panic", r)
			out, err = p.finish(ctx, wh, terminal{
				status: store.EventFailed,
				errMsg: fmt.Sprintf("internal error: %v", r),
				body:   body,
			})
		}
	}()

	if res := signature.Validate(body, headers, wh.Secret, wh.Source, wh.Config.SourceConfig); !res.Valid {
		p.logger.Warn("webhook signature rejected", "webhook_id", wh.ID, "reason", res.Error)
		return p.finish(ctx, wh, terminal{
			status: store.EventInvalidSignature,
			errMsg: res.Error,
			body:   body,
		})
	}

	switch wh.Status {
	case store.WebhookDraft, store.WebhookPaused:
		return p.finish(ctx, wh, terminal{status: store.EventTest, body: body})
	case store.WebhookError:
		msg := "webhook is in error state"
		if wh.ErrorMessage != nil {
			msg = *wh.ErrorMessage
		}
		return p.finish(ctx, wh, terminal{status: store.EventError, errMsg: msg, body: body})
	}

	var payload map[string]any
	if len(body) > 0 {
		if jsonErr := json.Unmarshal(body, &payload); jsonErr != nil {
			return p.finish(ctx, wh, terminal{
				status: store.EventFailed,
				errMsg: "invalid JSON payload",
				body:   body,
				touch:  true,
			})
		}
	}

	if !condition.EvaluateAll(wh.Config.Conditions, payload) {
		return p.finish(ctx, wh, terminal{status: store.EventFiltered, body: body, touch: true})
	}

	res := mapping.Resolve(payload, wh.Config)
	if res == nil {
		// Explicit skip and the defensive fallback for malformed configs
		// look identical here, on purpose.
		return p.finish(ctx, wh, terminal{status: store.EventFiltered, body: body, touch: true})
	}

	def, defErr := p.store.GetDefinition(ctx, res.Mapping.WorkflowDefinitionID)
	if defErr != nil {
		msg := fmt.Sprintf("workflow definition %s not found", res.Mapping.WorkflowDefinitionID)
		if setErr := p.store.SetWebhookError(ctx, wh.ID, msg); setErr != nil {
			p.logger.Error("failed to mark webhook errored", "webhook_id", wh.ID, "error", setErr)
		}
		return p.finish(ctx, wh, terminal{
			status: store.EventFailed,
			errMsg: msg,
			debug:  &res.Debug,
			body:   body,
			touch:  true,
		})
	}

	name := template.Render(wh.Config.Name, payload)
	if name == "" {
		name = wh.Name
	}

	eventID := newEventID()
	run := &store.WorkflowRun{
		WebhookID:            wh.ID,
		EventID:              eventID,
		Name:                 name,
		SpecTypeID:           res.Mapping.SpecTypeID,
		WorkflowDefinitionID: def.ID,
		SpecContent:          template.Render(wh.Config.SpecContent, payload),
		Status:               store.RunPending,
	}
	if runErr := p.store.CreateRun(ctx, run); runErr != nil {
		return p.finish(ctx, wh, terminal{
			status: store.EventFailed,
			errMsg: fmt.Sprintf("create workflow run: %v", runErr),
			debug:  &res.Debug,
			body:   body,
			touch:  true,
		})
	}

	p.logger.Info("workflow run created",
		"webhook_id", wh.ID,
		"workflow_run_id", run.ID,
		"workflow_definition_id", def.ID,
		"spec_type_id", res.Mapping.SpecTypeID,
	)
	p.hub.Publish(events.TypeRun, run)

	return p.finish(ctx, wh, terminal{
		status:  store.EventSuccess,
		debug:   &res.Debug,
		runID:   &run.ID,
		body:    body,
		touch:   true,
		eventID: eventID,
	})
}

// newEventID is pre-assigned on the success path so the run record can
// reference its event before either row is written.
func newEventID() string {
	return uuid.NewString()
}

// terminal describes how a delivery ended.
type terminal struct {
	status  store.EventStatus
	errMsg  string
	debug   *mapping.DebugInfo
	runID   *string
	body    []byte
	touch   bool
	eventID string
}

// finish records the single event for this delivery, updates
// last_triggered_at when the terminal calls for it, and publishes the
// record to the hub.
func (p *Processor) finish(ctx context.Context, wh *store.Webhook, t terminal) (*Outcome, error) {
	ev := &store.Event{
		ID:            t.eventID,
		WebhookID:     wh.ID,
		Status:        t.status,
		Payload:       json.RawMessage(t.body),
		Debug:         t.debug,
		ConfigHash:    wh.Config.Fingerprint(),
		WorkflowRunID: t.runID,
	}
	if t.errMsg != "" {
		ev.Error = &t.errMsg
	}
	if err := p.store.RecordEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("record event: %w", err)
	}

	if t.touch {
		if err := p.store.TouchWebhook(ctx, wh.ID, time.Now().UTC()); err != nil {
			p.logger.Error("failed to update last_triggered_at", "webhook_id", wh.ID, "error", err)
		}
	}

	p.hub.Publish(events.TypeDelivery, ev)
	p.logger.Info("delivery processed",
		"webhook_id", wh.ID,
		"event_id", ev.ID,
		"status", string(t.status),
	)

	return &Outcome{
		EventID:       ev.ID,
		Status:        t.status,
		WorkflowRunID: t.runID,
		Message:       t.errMsg,
	}, nil
}
