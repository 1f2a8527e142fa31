package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelhq/relay-gw/internal/mapping"
	"github.com/kestrelhq/relay-gw/internal/signature"
)

// Store wraps the SQLite handle. All methods are safe for concurrent use;
// each call is a single statement or a short implicit transaction.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const timeLayout = time.RFC3339Nano

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

// --- Webhooks ---

// CreateWebhook inserts w, assigning ID and timestamps when unset.
func (s *Store) CreateWebhook(ctx context.Context, w *Webhook) error {
	if w.Name == "" {
		return fmt.Errorf("webhook name is empty")
	}
	if !w.Source.Known() {
		return fmt.Errorf("unknown webhook source %q", w.Source)
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Status == "" {
		w.Status = WebhookDraft
	}

	cfg, err := json.Marshal(w.Config)
	if err != nil {
		return fmt.Errorf("marshal webhook config: %w", err)
	}

	ts := now()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO webhooks(id, name, source, secret, status, config, error_message, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?);
`, w.ID, w.Name, string(w.Source), w.Secret, string(w.Status), string(cfg), w.ErrorMessage, ts, ts)
	if err != nil {
		return fmt.Errorf("create webhook: %w", err)
	}
	if t, err := time.Parse(timeLayout, ts); err == nil {
		w.CreatedAt = t
		w.UpdatedAt = t
	}
	return nil
}

const webhookColumns = `id, name, source, secret, status, config, error_message, last_triggered_at, created_at, updated_at`

func (s *Store) GetWebhook(ctx context.Context, id string) (*Webhook, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+webhookColumns+` FROM webhooks WHERE id = ?;`, id)
	w, err := scanWebhook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWebhookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get webhook: %w", err)
	}
	return w, nil
}

func (s *Store) ListWebhooks(ctx context.Context) ([]*Webhook, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+webhookColumns+` FROM webhooks ORDER BY created_at ASC;`)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	var out []*Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("list webhooks: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// UpdateWebhook persists name, status, secret, config, and error message.
func (s *Store) UpdateWebhook(ctx context.Context, w *Webhook) error {
	cfg, err := json.Marshal(w.Config)
	if err != nil {
		return fmt.Errorf("marshal webhook config: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
UPDATE webhooks
SET name = ?, status = ?, secret = ?, config = ?, error_message = ?, updated_at = ?
WHERE id = ?;
`, w.Name, string(w.Status), w.Secret, string(cfg), w.ErrorMessage, now(), w.ID)
	if err != nil {
		return fmt.Errorf("update webhook: %w", err)
	}
	return requireRow(res, ErrWebhookNotFound)
}

func (s *Store) DeleteWebhook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return requireRow(res, ErrWebhookNotFound)
}

// SetWebhookError marks a webhook errored with a stored message so later
// deliveries fast-fail until an operator reactivates it.
func (s *Store) SetWebhookError(ctx context.Context, id, message string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE webhooks SET status = ?, error_message = ?, updated_at = ? WHERE id = ?;
`, string(WebhookError), message, now(), id)
	if err != nil {
		return fmt.Errorf("set webhook error: %w", err)
	}
	return requireRow(res, ErrWebhookNotFound)
}

// TouchWebhook updates last_triggered_at.
func (s *Store) TouchWebhook(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE webhooks SET last_triggered_at = ?, updated_at = ? WHERE id = ?;
`, at.UTC().Format(timeLayout), now(), id)
	if err != nil {
		return fmt.Errorf("touch webhook: %w", err)
	}
	return requireRow(res, ErrWebhookNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWebhook(row rowScanner) (*Webhook, error) {
	var (
		w            Webhook
		source       string
		status       string
		cfgJSON      string
		errorMessage sql.NullString
		lastTrig     sql.NullString
		createdAtS   string
		updatedAtS   string
	)
	if err := row.Scan(&w.ID, &w.Name, &source, &w.Secret, &status, &cfgJSON,
		&errorMessage, &lastTrig, &createdAtS, &updatedAtS); err != nil {
		return nil, err
	}

	w.Source = signature.Source(source)
	w.Status = WebhookStatus(status)
	if err := json.Unmarshal([]byte(cfgJSON), &w.Config); err != nil {
		return nil, fmt.Errorf("unmarshal webhook config: %w", err)
	}
	if errorMessage.Valid {
		w.ErrorMessage = &errorMessage.String
	}
	if lastTrig.Valid {
		if t, err := time.Parse(timeLayout, lastTrig.String); err == nil {
			w.LastTriggeredAt = &t
		}
	}
	if t, err := time.Parse(timeLayout, createdAtS); err == nil {
		w.CreatedAt = t
	}
	if t, err := time.Parse(timeLayout, updatedAtS); err == nil {
		w.UpdatedAt = t
	}
	return &w, nil
}

// --- Events ---

// RecordEvent inserts the delivery record, assigning ID and timestamp
// when unset.
func (s *Store) RecordEvent(ctx context.Context, e *Event) error {
	if e.WebhookID == "" {
		return fmt.Errorf("event webhook_id is empty")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	var debugJSON any
	if e.Debug != nil {
		b, err := json.Marshal(e.Debug)
		if err != nil {
			return fmt.Errorf("marshal event debug: %w", err)
		}
		debugJSON = string(b)
	}

	var payload any
	if len(e.Payload) > 0 {
		payload = string(e.Payload)
	}

	ts := now()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO webhook_events(id, webhook_id, status, payload, debug, config_hash, workflow_run_id, error, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?);
`, e.ID, e.WebhookID, string(e.Status), payload, debugJSON, e.ConfigHash, e.WorkflowRunID, e.Error, ts)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	if t, err := time.Parse(timeLayout, ts); err == nil {
		e.CreatedAt = t
	}
	return nil
}

const eventColumns = `id, webhook_id, status, payload, debug, config_hash, workflow_run_id, error, created_at`

func (s *Store) GetEvent(ctx context.Context, id string) (*Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM webhook_events WHERE id = ?;`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListEvents returns the most recent events for a webhook, newest first.
// Pass webhookID == "" for all webhooks.
func (s *Store) ListEvents(ctx context.Context, webhookID string, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + eventColumns + ` FROM webhook_events `
	args := []any{}
	if webhookID != "" {
		query += `WHERE webhook_id = ? `
		args = append(args, webhookID)
	}
	query += `ORDER BY created_at DESC, rowid DESC LIMIT ?;`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEvent(row rowScanner) (*Event, error) {
	var (
		e          Event
		status     string
		payload    sql.NullString
		debug      sql.NullString
		configHash sql.NullString
		runID      sql.NullString
		errMsg     sql.NullString
		createdAtS string
	)
	if err := row.Scan(&e.ID, &e.WebhookID, &status, &payload, &debug,
		&configHash, &runID, &errMsg, &createdAtS); err != nil {
		return nil, err
	}

	e.Status = EventStatus(status)
	if payload.Valid {
		e.Payload = json.RawMessage(payload.String)
	}
	if debug.Valid {
		var d mapping.DebugInfo
		if err := json.Unmarshal([]byte(debug.String), &d); err == nil {
			e.Debug = &d
		}
	}
	if configHash.Valid {
		e.ConfigHash = configHash.String
	}
	if runID.Valid {
		e.WorkflowRunID = &runID.String
	}
	if errMsg.Valid {
		e.Error = &errMsg.String
	}
	if t, err := time.Parse(timeLayout, createdAtS); err == nil {
		e.CreatedAt = t
	}
	return &e, nil
}

// --- Workflow definitions ---

func (s *Store) CreateDefinition(ctx context.Context, d *WorkflowDefinition) error {
	if d.Name == "" {
		return fmt.Errorf("definition name is empty")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	ts := now()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO workflow_definitions(id, name, description, created_at)
VALUES(?, ?, ?, ?);
`, d.ID, d.Name, d.Description, ts)
	if err != nil {
		return fmt.Errorf("create definition: %w", err)
	}
	if t, err := time.Parse(timeLayout, ts); err == nil {
		d.CreatedAt = t
	}
	return nil
}

func (s *Store) GetDefinition(ctx context.Context, id string) (*WorkflowDefinition, error) {
	var (
		d           WorkflowDefinition
		description sql.NullString
		createdAtS  string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, name, description, created_at FROM workflow_definitions WHERE id = ?;
`, id).Scan(&d.ID, &d.Name, &description, &createdAtS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDefinitionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get definition: %w", err)
	}
	if description.Valid {
		d.Description = description.String
	}
	if t, err := time.Parse(timeLayout, createdAtS); err == nil {
		d.CreatedAt = t
	}
	return &d, nil
}

func (s *Store) ListDefinitions(ctx context.Context) ([]*WorkflowDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, description, created_at FROM workflow_definitions ORDER BY created_at ASC;
`)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	defer rows.Close()

	var out []*WorkflowDefinition
	for rows.Next() {
		var (
			d           WorkflowDefinition
			description sql.NullString
			createdAtS  string
		)
		if err := rows.Scan(&d.ID, &d.Name, &description, &createdAtS); err != nil {
			return nil, fmt.Errorf("list definitions: %w", err)
		}
		if description.Valid {
			d.Description = description.String
		}
		if t, err := time.Parse(timeLayout, createdAtS); err == nil {
			d.CreatedAt = t
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// --- Workflow runs ---

func (s *Store) CreateRun(ctx context.Context, r *WorkflowRun) error {
	if r.Name == "" {
		return fmt.Errorf("run name is empty")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = RunPending
	}

	ts := now()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO workflow_runs(id, webhook_id, event_id, name, spec_type_id, workflow_definition_id, spec_content, status, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?);
`, r.ID, r.WebhookID, r.EventID, r.Name, r.SpecTypeID, r.WorkflowDefinitionID, r.SpecContent, string(r.Status), ts)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	if t, err := time.Parse(timeLayout, ts); err == nil {
		r.CreatedAt = t
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*WorkflowRun, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, webhook_id, event_id, name, spec_type_id, workflow_definition_id, spec_content, status, created_at
FROM workflow_runs WHERE id = ?;
`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*WorkflowRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, webhook_id, event_id, name, spec_type_id, workflow_definition_id, spec_content, status, created_at
FROM workflow_runs ORDER BY created_at DESC, rowid DESC LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*WorkflowRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRun(row rowScanner) (*WorkflowRun, error) {
	var (
		r           WorkflowRun
		webhookID   sql.NullString
		eventID     sql.NullString
		specContent sql.NullString
		status      string
		createdAtS  string
	)
	if err := row.Scan(&r.ID, &webhookID, &eventID, &r.Name, &r.SpecTypeID,
		&r.WorkflowDefinitionID, &specContent, &status, &createdAtS); err != nil {
		return nil, err
	}
	if webhookID.Valid {
		r.WebhookID = webhookID.String
	}
	if eventID.Valid {
		r.EventID = eventID.String
	}
	if specContent.Valid {
		r.SpecContent = specContent.String
	}
	r.Status = RunStatus(status)
	if t, err := time.Parse(timeLayout, createdAtS); err == nil {
		r.CreatedAt = t
	}
	return &r, nil
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
