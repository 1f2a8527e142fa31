package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kestrelhq/relay-gw/internal/mapping"
	"github.com/kestrelhq/relay-gw/internal/secrets"
	"github.com/kestrelhq/relay-gw/internal/signature"
	"github.com/kestrelhq/relay-gw/internal/store"
)

// webhookView is the API representation of a webhook. The signing secret
// is only disclosed at creation and rotation time.
type webhookView struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Source          signature.Source    `json:"source"`
	Status          store.WebhookStatus `json:"status"`
	Config          mapping.Config      `json:"config"`
	ErrorMessage    *string             `json:"error_message,omitempty"`
	LastTriggeredAt *time.Time          `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func viewOf(w *store.Webhook) webhookView {
	return webhookView{
		ID:              w.ID,
		Name:            w.Name,
		Source:          w.Source,
		Status:          w.Status,
		Config:          w.Config,
		ErrorMessage:    w.ErrorMessage,
		LastTriggeredAt: w.LastTriggeredAt,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

type createWebhookRequest struct {
	Name   string              `json:"name"`
	Source signature.Source    `json:"source"`
	Status store.WebhookStatus `json:"status,omitempty"`
	// Secret, when set, is a provider-supplied value stored verbatim.
	// Otherwise a fresh 32-byte hex secret is generated.
	Secret string         `json:"secret,omitempty"`
	Config mapping.Config `json:"config"`
}

type createWebhookResponse struct {
	webhookView
	Secret string `json:"secret"`
}

func (s *Server) handleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	var req createWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Name == "" {
		s.writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	if !req.Source.Known() {
		s.writeError(w, http.StatusUnprocessableEntity, "unknown source")
		return
	}
	if req.Status != "" && !req.Status.Known() {
		s.writeError(w, http.StatusUnprocessableEntity, "unknown status")
		return
	}
	if req.Config.Name == "" {
		req.Config.Name = req.Name
	}
	if err := req.Config.Validate(); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	secret := req.Secret
	if secret == "" {
		generated, err := secrets.New()
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to generate secret")
			return
		}
		secret = generated
	}

	wh := &store.Webhook{
		Name:   req.Name,
		Source: req.Source,
		Secret: secret,
		Status: req.Status,
		Config: req.Config,
	}
	if err := s.store.CreateWebhook(r.Context(), wh); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("webhook created", "webhook_id", wh.ID, "source", string(wh.Source))
	s.writeJSON(w, http.StatusCreated, createWebhookResponse{
		webhookView: viewOf(wh),
		Secret:      wh.Secret,
	})
}

func (s *Server) handleListWebhooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := s.store.ListWebhooks(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]webhookView, 0, len(hooks))
	for _, wh := range hooks {
		views = append(views, viewOf(wh))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetWebhook(w http.ResponseWriter, r *http.Request) {
	wh, err := s.store.GetWebhook(r.Context(), chi.URLParam(r, "webhookID"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(wh))
}

type updateWebhookRequest struct {
	Name   *string              `json:"name,omitempty"`
	Status *store.WebhookStatus `json:"status,omitempty"`
	Config *mapping.Config      `json:"config,omitempty"`
}

func (s *Server) handleUpdateWebhook(w http.ResponseWriter, r *http.Request) {
	wh, err := s.store.GetWebhook(r.Context(), chi.URLParam(r, "webhookID"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	var req updateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			s.writeError(w, http.StatusUnprocessableEntity, "name cannot be empty")
			return
		}
		wh.Name = *req.Name
	}
	if req.Config != nil {
		if err := req.Config.Validate(); err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		wh.Config = *req.Config
	}
	if req.Status != nil {
		if !req.Status.Known() {
			s.writeError(w, http.StatusUnprocessableEntity, "unknown status")
			return
		}
		wh.Status = *req.Status
		// Manual reactivation clears the stored fault.
		if *req.Status == store.WebhookActive {
			wh.ErrorMessage = nil
		}
	}

	if err := s.store.UpdateWebhook(r.Context(), wh); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(wh))
}

func (s *Server) handleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteWebhook(r.Context(), chi.URLParam(r, "webhookID")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRotateSecret(w http.ResponseWriter, r *http.Request) {
	wh, err := s.store.GetWebhook(r.Context(), chi.URLParam(r, "webhookID"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	secret, err := secrets.New()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to generate secret")
		return
	}
	wh.Secret = secret
	if err := s.store.UpdateWebhook(r.Context(), wh); err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.logger.Info("webhook secret rotated", "webhook_id", wh.ID)
	s.writeJSON(w, http.StatusOK, map[string]string{"secret": secret})
}

func (s *Server) handleListWebhookEvents(w http.ResponseWriter, r *http.Request) {
	webhookID := chi.URLParam(r, "webhookID")
	if _, err := s.store.GetWebhook(r.Context(), webhookID); err != nil {
		s.writeStoreError(w, err)
		return
	}
	evs, err := s.store.ListEvents(r.Context(), webhookID, parseLimit(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, evs)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.store.GetEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context(), parseLimit(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := s.store.ListDefinitions(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, defs)
}

func parseLimit(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrWebhookNotFound),
		errors.Is(err, store.ErrEventNotFound),
		errors.Is(err, store.ErrRunNotFound),
		errors.Is(err, store.ErrDefinitionNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
