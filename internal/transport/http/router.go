package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "yinyom/internal/admin/handler"
	consenthandler "yinyom/internal/consent/handler"
	"yinyom/internal/platform/metrics"
	"yinyom/internal/platform/middleware"
	policyhandler "yinyom/internal/policy/handler"
	targetinghandler "yinyom/internal/targeting/handler"
)

// Handlers bundles the per-module handlers the router mounts.
type Handlers struct {
	Admin     *adminhandler.Handler
	Policy    *policyhandler.Handler
	Targeting *targetinghandler.Handler
	Consent   *consenthandler.Handler
}

// Deps carries everything the router needs beyond the handlers themselves.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	TokenValidator middleware.TokenValidator
	RequestTimeout time.Duration
}

// New builds the full HTTP surface: public endpoints under /v1, admin
// endpoints under /v1/admin behind the bearer-token guard, plus /healthz and
// /metrics outside the versioned tree.
func New(h Handlers, deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(deps.RequestTimeout))
	r.Use(middleware.Latency(deps.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(middleware.ContentTypeJSON)

		h.Policy.RegisterPublic(v1)
		h.Consent.RegisterPublic(v1)

		v1.Route("/admin", func(admin chi.Router) {
			h.Admin.RegisterPublic(admin)

			admin.Group(func(g chi.Router) {
				g.Use(middleware.RequireAdmin(deps.TokenValidator, deps.Logger))
				h.Policy.RegisterAdmin(g)
				h.Targeting.RegisterAdmin(g)
				h.Consent.RegisterAdmin(g)
			})
		})
	})

	return r
}
