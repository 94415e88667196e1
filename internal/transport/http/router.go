package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"medgate/internal/audit"
	consenthandler "medgate/internal/consent/handler"
	"medgate/internal/directory"
	"medgate/internal/gateway"
	"medgate/internal/platform/metrics"
	"medgate/internal/platform/middleware"
	respond "medgate/internal/transport/http/json"
)

// Deps carries the wired handlers and cross-cutting pieces the router mounts.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	TokenValidator middleware.TokenValidator

	Consent    *consenthandler.Handler
	Gateway    *gateway.Handler
	Directory  *directory.Handler
	AccessLogs *audit.Handler

	// HealthCheck pings backing storage; nil means no database is configured.
	HealthCheck func(ctx context.Context) error
}

// NewRouter wires all endpoints with the middleware stack.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(deps.Metrics))

	r.Get("/healthz", handleHealth(deps.HealthCheck))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	deps.Directory.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.TokenValidator, deps.Logger))

		deps.Consent.Register(r)
		deps.Gateway.Register(r)
		deps.AccessLogs.Register(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(deps.Logger, string(directory.RoleAdmin)))
			deps.AccessLogs.RegisterAdmin(r)
		})
	})

	return r
}

func handleHealth(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				respond.WriteMessage(w, http.StatusServiceUnavailable, "storage unavailable")
				return
			}
		}
		respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
