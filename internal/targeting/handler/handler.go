package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"yinyom/internal/targeting/models"
	"yinyom/internal/transport/http/shared"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
)

// Service is the slice of the targeting service the HTTP layer needs.
type Service interface {
	CreateRule(ctx context.Context, priority int, ruleType models.RuleType, targetValue string, documentID domain.DocumentID) (*models.Rule, error)
	UpdateRule(ctx context.Context, id domain.RuleID, priority int, ruleType models.RuleType, targetValue string, documentID domain.DocumentID) (*models.Rule, error)
	DeleteRule(ctx context.Context, id domain.RuleID) error
	ListRules(ctx context.Context) ([]models.Rule, error)
}

// Handler exposes the admin rule-management endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the rule routes; the caller guards them.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/rules", h.handleList)
	r.Post("/rules", h.handleCreate)
	r.Put("/rules/{id}", h.handleUpdate)
	r.Delete("/rules/{id}", h.handleDelete)
}

type ruleRequest struct {
	Priority    int    `json:"priority"`
	RuleType    string `json:"rule_type"`
	TargetValue string `json:"target_value"`
	DocumentID  string `json:"document_id"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	rules, err := h.service.ListRules(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, docID, ok := h.decode(w, r)
	if !ok {
		return
	}
	rule, err := h.service.CreateRule(r.Context(), req.Priority, models.RuleType(req.RuleType), req.TargetValue, docID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, rule)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRuleID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	req, docID, ok := h.decode(w, r)
	if !ok {
		return
	}
	rule, err := h.service.UpdateRule(r.Context(), id, req.Priority, models.RuleType(req.RuleType), req.TargetValue, docID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rule)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRuleID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.DeleteRule(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (ruleRequest, domain.DocumentID, bool) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return req, domain.DocumentID{}, false
	}
	docID, err := domain.ParseDocumentID(req.DocumentID)
	if err != nil {
		shared.WriteError(w, err)
		return req, domain.DocumentID{}, false
	}
	return req, docID, true
}
