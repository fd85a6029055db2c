package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"yinyom/internal/content"
	"yinyom/internal/policy/models"
	"yinyom/internal/transport/http/shared"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
)

// Service is the slice of the policy service the HTTP layer needs.
type Service interface {
	CreateVersion(ctx context.Context, version string, userType domain.UserType, language domain.Language, title, content string) (*models.Document, error)
	UpdateVersion(ctx context.Context, id domain.DocumentID, title, content string) (*models.Document, error)
	Activate(ctx context.Context, id domain.DocumentID) error
	Get(ctx context.Context, id domain.DocumentID) (*models.Document, error)
	List(ctx context.Context, filter models.Filter) ([]models.Document, error)
	Rendered(ctx context.Context, id domain.DocumentID) (*models.Document, content.Rendered, error)
	RenderedActive(ctx context.Context, userType domain.UserType, language domain.Language) (*models.Document, content.Rendered, error)
}

// Handler exposes policy document endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the end-user routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/policies/active", h.handleActivePolicy)
}

// RegisterAdmin mounts the admin routes; the caller guards them.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/policies", h.handleCreate)
	r.Get("/policies", h.handleList)
	r.Get("/policies/{id}", h.handleGet)
	r.Put("/policies/{id}", h.handleUpdate)
	r.Post("/policies/{id}/activate", h.handleActivate)
	r.Get("/policies/{id}/preview", h.handlePreview)
}

type createRequest struct {
	Version  string `json:"version"`
	UserType string `json:"user_type"`
	Language string `json:"language"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

type updateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type renderedResponse struct {
	Document *models.Document `json:"document"`
	Format   content.Format   `json:"format"`
	HTML     string           `json:"html"`
}

// handleActivePolicy returns the rendered live policy for an audience pair.
// This is the document the consent form displays.
func (h *Handler) handleActivePolicy(w http.ResponseWriter, r *http.Request) {
	userType, err := domain.ParseUserType(r.URL.Query().Get("user_type"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	language, err := domain.ParseLanguage(r.URL.Query().Get("lang"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	doc, rendered, err := h.service.RenderedActive(r.Context(), userType, language)
	if err != nil {
		h.logError(r, "active policy lookup failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, renderedResponse{Document: doc, Format: rendered.Format, HTML: rendered.HTML})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	userType, err := domain.ParseUserType(req.UserType)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	language, err := domain.ParseLanguage(req.Language)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	doc, err := h.service.CreateVersion(r.Context(), req.Version, userType, language, req.Title, req.Content)
	if err != nil {
		h.logError(r, "create policy version failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var filter models.Filter
	if v := r.URL.Query().Get("user_type"); v != "" {
		userType, err := domain.ParseUserType(v)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		filter.UserType = userType
	}
	if v := r.URL.Query().Get("lang"); v != "" {
		language, err := domain.ParseLanguage(v)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		filter.Language = language
	}
	filter.ActiveOnly = r.URL.Query().Get("active") == "true"

	docs, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logError(r, "list policies failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	doc, err := h.service.UpdateVersion(r.Context(), id, req.Title, req.Content)
	if err != nil {
		h.logError(r, "update policy version failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Activate(r.Context(), id); err != nil {
		h.logError(r, "activate policy version failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePreview renders any version, active or not, so admins can check
// formatting before going live.
func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	doc, rendered, err := h.service.Rendered(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, renderedResponse{Document: doc, Format: rendered.Format, HTML: rendered.HTML})
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(r.Context(), msg, "error", err.Error())
	}
}
