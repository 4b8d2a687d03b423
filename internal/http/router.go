// Package httpapi assembles the HTTP surface: middleware stack, health and
// metrics endpoints, and the domain handlers. Business logic stays in the
// services; this layer only wires.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"steeple/pkg/platform/httputil"
	authmw "steeple/pkg/platform/middleware/auth"
	"steeple/pkg/platform/middleware/requestid"
	"steeple/pkg/platform/middleware/requesttime"
)

// Registrar is anything that can attach its routes to a chi router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports readiness of a backing resource.
type HealthChecker func(ctx context.Context) error

// RouterConfig carries everything NewRouter needs.
type RouterConfig struct {
	Logger       *slog.Logger
	JWTValidator authmw.ClaimsValidator
	Handlers     []Registrar
	// HealthChecks run on /healthz; any failure flips the response to 503.
	HealthChecks map[string]HealthChecker
}

// NewRouter wires all public endpoints behind the shared middleware stack.
// Health and metrics stay outside the auth boundary.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", handleHealth(cfg.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.JWTValidator, cfg.Logger))
		for _, h := range cfg.Handlers {
			h.Register(r)
		}
	})

	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			} else {
				body[name] = "ok"
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}
