package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yinyom/internal/admin/secrets"
	"yinyom/internal/admin/token"
	"yinyom/pkg/platform/audit"
	"yinyom/pkg/testutil"
)

func newLoginRouter(t *testing.T, password string) (*chi.Mux, *token.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := token.NewService("test-key", time.Hour)

	var hash string
	if password != "" {
		var err error
		hash, err = secrets.Hash(password)
		require.NoError(t, err)
	}
	h := New("admin", hash, tokens, logger)

	r := chi.NewRouter()
	r.Route("/admin", func(admin chi.Router) {
		h.RegisterPublic(admin)
	})
	return r, tokens
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials yield a usable token", func(t *testing.T) {
		router, tokens := newLoginRouter(t, "s3cret")
		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/login", map[string]string{
			"username": "admin",
			"password": "s3cret",
		})
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[loginResponse](t, rr)
		require.NotEmpty(t, resp.Token)

		subject, err := tokens.Validate(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "admin", subject)
	})

	t.Run("wrong password", func(t *testing.T) {
		router, _ := newLoginRouter(t, "s3cret")
		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/login", map[string]string{
			"username": "admin",
			"password": "wrong",
		})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("wrong username", func(t *testing.T) {
		router, _ := newLoginRouter(t, "s3cret")
		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/login", map[string]string{
			"username": "root",
			"password": "s3cret",
		})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("successful login leaves an audit event", func(t *testing.T) {
		hash, err := secrets.Hash("s3cret")
		require.NoError(t, err)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		tokens := token.NewService("test-key", time.Hour)
		sink := audit.NewMemory()
		h := New("admin", hash, tokens, logger, WithAuditPublisher(sink))

		r := chi.NewRouter()
		r.Route("/admin", func(admin chi.Router) { h.RegisterPublic(admin) })

		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/login", map[string]string{
			"username": "admin",
			"password": "s3cret",
		})
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		events := sink.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionAdminLogin, events[0].Action)
		assert.Equal(t, "admin", events[0].Actor)
	})

	t.Run("failed login emits nothing", func(t *testing.T) {
		hash, err := secrets.Hash("s3cret")
		require.NoError(t, err)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		tokens := token.NewService("test-key", time.Hour)
		sink := audit.NewMemory()
		h := New("admin", hash, tokens, logger, WithAuditPublisher(sink))

		r := chi.NewRouter()
		r.Route("/admin", func(admin chi.Router) { h.RegisterPublic(admin) })

		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/login", map[string]string{
			"username": "admin",
			"password": "wrong",
		})
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		assert.Empty(t, sink.Events())
	})

	t.Run("stored hash is not a valid password", func(t *testing.T) {
		hash, err := secrets.Hash("s3cret")
		require.NoError(t, err)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		tokens := token.NewService("test-key", time.Hour)
		h := New("admin", hash, tokens, logger)

		r := chi.NewRouter()
		r.Route("/admin", func(admin chi.Router) { h.RegisterPublic(admin) })

		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/login", map[string]string{
			"username": "admin",
			"password": hash,
		})
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("no password configured disables the endpoint", func(t *testing.T) {
		router, _ := newLoginRouter(t, "")
		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/login", map[string]string{
			"username": "admin",
			"password": "",
		})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("malformed body", func(t *testing.T) {
		router, _ := newLoginRouter(t, "s3cret")
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/admin/login", "{oops")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}
