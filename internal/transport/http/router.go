// Package http wires the service's HTTP surface: the identity-provider
// webhook, the interaction gateway, and the operator API.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gatehouse/internal/operator"
	"gatehouse/internal/platform/metrics"
	"gatehouse/internal/platform/middleware"
)

// RouterDeps bundles what the router needs.
type RouterDeps struct {
	Webhook      *WebhookHandler
	Interactions *InteractionsHandler
	Operator     *OperatorHandler
	JWT          *operator.JWTService
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Health       func() error
}

// NewRouter assembles the full middleware chain and route table.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger, deps.Metrics))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.AllowContentType("application/json"))

		r.Post("/verify", deps.Webhook.Push)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.JWT, operator.ScopeInteract, deps.Logger))
			r.Post("/interactions", deps.Interactions.Dispatch)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.JWT, operator.ScopeAdmin, deps.Logger))
			r.Get("/export", deps.Operator.Export)
			r.Post("/import", deps.Operator.Import)
			r.Get("/counts", deps.Operator.Counts)
			r.Get("/members/{id}", deps.Operator.LookupMember)
			r.Patch("/members/{id}", deps.Operator.UpdateMember)
			r.Delete("/members/{id}", deps.Operator.DeleteMember)
			r.Post("/roster/refresh", deps.Operator.RefreshRoster)
			r.Post("/extras", deps.Operator.CreateExtra)
			r.Patch("/extras/{id}", deps.Operator.UpdateExtra)
			r.Delete("/extras/{id}", deps.Operator.DeleteExtra)
		})
	})

	return r
}
