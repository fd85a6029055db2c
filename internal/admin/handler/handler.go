package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"yinyom/internal/admin/secrets"
	"yinyom/internal/platform/middleware"
	"yinyom/internal/transport/http/shared"
	dErrors "yinyom/pkg/domain-errors"
	"yinyom/pkg/platform/audit"
)

// TokenIssuer signs tokens for authenticated admins.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// AuditPublisher receives compliance events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Handler owns admin authentication. Credentials come from the environment;
// this is a single-operator deployment, not a user directory. Only the bcrypt
// hash of the password is held, never the plaintext.
type Handler struct {
	username     string
	passwordHash string
	issuer       TokenIssuer
	auditor      AuditPublisher
	logger       *slog.Logger
	now          func() time.Time
}

type Option func(*Handler)

func WithAuditPublisher(p AuditPublisher) Option {
	return func(h *Handler) { h.auditor = p }
}

func New(username, passwordHash string, issuer TokenIssuer, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		username:     username,
		passwordHash: passwordHash,
		issuer:       issuer,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterPublic mounts the login route (it cannot sit behind the guard it
// bootstraps).
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if h.passwordHash == "" {
		// No password hash configured means the admin API is disabled.
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin API is not configured"))
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.username)) == 1
	passOK := secrets.Verify(req.Password, h.passwordHash) == nil
	if !userOK || !passOK {
		h.logger.WarnContext(r.Context(), "failed admin login",
			"request_id", middleware.GetRequestID(r.Context()),
			"username", req.Username,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))
		return
	}

	token, err := h.issuer.Issue(req.Username)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "token issue failed", "error", err.Error())
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "could not issue token"))
		return
	}
	h.emitAudit(r.Context(), audit.Event{
		Category:  audit.CategoryOperations,
		Action:    audit.ActionAdminLogin,
		Timestamp: h.now(),
		RequestID: middleware.GetRequestID(r.Context()),
		Actor:     req.Username,
	})
	shared.WriteJSON(w, http.StatusOK, loginResponse{Token: token})
}

// emitAudit is fail-open; a sink outage must not lock operators out.
func (h *Handler) emitAudit(ctx context.Context, event audit.Event) {
	if h.auditor == nil {
		return
	}
	if err := h.auditor.Emit(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "audit emit failed",
			"action", string(event.Action),
			"error", err.Error(),
		)
	}
}
