package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"yinyom/internal/consent/models"
	"yinyom/internal/consent/service"
	"yinyom/internal/identity"
	"yinyom/internal/platform/middleware"
	"yinyom/internal/transport/http/shared"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
)

// Service is the slice of the consent service the HTTP layer needs.
type Service interface {
	Accept(ctx context.Context, req service.AcceptRequest) (*service.AcceptResult, error)
	Lookup(ctx context.Context, rawIdentity string) ([]models.Record, error)
	ListRecords(ctx context.Context, filter models.Filter) ([]models.Record, error)
	Export(ctx context.Context, w io.Writer, filter models.Filter, format service.ExportFormat, actor string) error
}

// Handler exposes the consent flow and admin record endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// RegisterPublic mounts the end-user routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/consents", h.handleAccept)
	r.Get("/consents/lookup", h.handleLookup)
	r.Post("/identity/validate", h.handleValidateIdentity)
}

// RegisterAdmin mounts the admin routes; the caller guards them.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/consents", h.handleAdminList)
	r.Get("/consents/export", h.handleExport)
}

type acceptRequest struct {
	Identity  string `json:"identity"`
	UserGroup string `json:"user_group,omitempty"`
	UserType  string `json:"user_type"`
	Language  string `json:"language"`
}

type acceptResponse struct {
	Record          *models.Record `json:"record"`
	DocumentVersion string         `json:"document_version"`
	AlreadyAccepted bool           `json:"already_accepted"`
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
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

	result, err := h.service.Accept(r.Context(), service.AcceptRequest{
		RawIdentity: req.Identity,
		UserGroup:   req.UserGroup,
		UserType:    userType,
		Language:    language,
		IPAddress:   clientIP(r),
		UserAgent:   r.UserAgent(),
		RequestID:   middleware.GetRequestID(r.Context()),
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(r.Context(), "consent accept failed",
				"request_id", middleware.GetRequestID(r.Context()),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyAccepted {
		status = http.StatusOK
	}
	shared.WriteJSON(w, status, acceptResponse{
		Record:          result.Record,
		DocumentVersion: result.Document.Version,
		AlreadyAccepted: result.AlreadyAccepted,
	})
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Lookup(r.Context(), r.URL.Query().Get("identity"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"records": records})
}

type validateIdentityRequest struct {
	Identity string `json:"identity"`
}

type validateIdentityResponse struct {
	Valid  bool   `json:"valid"`
	Kind   string `json:"kind"`
	Masked string `json:"masked,omitempty"`
	Error  string `json:"error,omitempty"`
}

// handleValidateIdentity backs the form-side inline validation. It never
// returns the normalized identity, only the masked display form.
func (h *Handler) handleValidateIdentity(w http.ResponseWriter, r *http.Request) {
	var req validateIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	res := identity.Validate(req.Identity)
	resp := validateIdentityResponse{
		Valid: res.Valid,
		Kind:  string(res.Kind),
		Error: res.Err,
	}
	if res.Valid {
		resp.Masked = identity.Mask(res.Normalized, res.Kind)
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAdminList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	records, err := h.service.ListRecords(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	items := make([]adminRecord, 0, len(records))
	for i := range records {
		items = append(items, adminRecord{
			Record: &records[i],
			Client: models.ParseClient(records[i].UserAgent),
		})
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"records": items})
}

// adminRecord decorates a record with the parsed user-agent metadata shown in
// the admin console.
type adminRecord struct {
	*models.Record
	Client models.Client `json:"client"`
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	format := service.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = service.ExportCSV
	}

	switch format {
	case service.ExportCSV:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="consents.csv"`)
	case service.ExportXLSX:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="consents.xlsx"`)
	default:
		shared.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "unsupported export format %q", format))
		return
	}

	actor := middleware.GetAdminSubject(r.Context())
	if err := h.service.Export(r.Context(), w, filter, format, actor); err != nil {
		// Headers may already be out; log rather than switching envelopes.
		h.logger.ErrorContext(r.Context(), "consent export failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"format", string(format),
			"error", err.Error(),
		)
	}
}

func parseFilter(r *http.Request) (models.Filter, error) {
	var filter models.Filter
	if v := r.URL.Query().Get("user_type"); v != "" {
		userType, err := domain.ParseUserType(v)
		if err != nil {
			return filter, err
		}
		filter.UserType = userType
	}
	if v := r.URL.Query().Get("lang"); v != "" {
		language, err := domain.ParseLanguage(v)
		if err != nil {
			return filter, err
		}
		filter.Language = language
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, "from must be RFC 3339")
		}
		filter.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, "to must be RFC 3339")
		}
		filter.To = t
	}
	return filter, nil
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// The header may carry the whole proxy chain; the first hop is the
		// client.
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
