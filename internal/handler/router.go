package handler

import (
	"net/http"

	"github.com/larkin/bankview-go/internal/infra/observability"
	"github.com/larkin/bankview-go/internal/service"
	"github.com/larkin/bankview-go/internal/session"
	"github.com/larkin/bankview-go/internal/transfer"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps bundles everything the router serves.
type Deps struct {
	Auth        *service.AuthService
	Accounts    *service.AccountsService
	Banks       *service.BanksService
	Coordinator *transfer.Coordinator
	Session     *session.AuthSession
	Metrics     *observability.Metrics
	Logger      *zap.Logger

	// AllowedOrigin is the browser client's origin for CORS.
	AllowedOrigin string
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(deps.Logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{deps.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Session lifecycle: open to anonymous callers.
		r.Post("/session", loginHandler(deps.Auth, deps.Logger))
		r.Delete("/session", logoutHandler(deps.Auth))
		r.Get("/session", sessionHandler(deps.Auth))

		// Protected views: any live session.
		r.Group(func(r chi.Router) {
			r.Use(RequireSession(deps.Auth, nil, deps.Logger))

			r.Get("/accounts", listAccountsHandler(deps.Accounts, deps.Logger))
			r.Post("/accounts", createAccountHandler(deps.Accounts, deps.Logger))
			r.Get("/banks", listBanksHandler(deps.Banks, deps.Logger))
			r.Post("/transfers", transferHandler(deps.Coordinator, deps.Session, deps.Logger))
		})

		// Admin views: role-gated.
		r.Group(func(r chi.Router) {
			r.Use(RequireSession(deps.Auth, []string{"admin"}, deps.Logger))

			r.Get("/admin/sync-metrics", syncMetricsHandler(deps.Metrics))
		})
	})

	return r
}
