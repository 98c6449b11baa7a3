package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jwttoken "civicproof/internal/jwt_token"
	platformmetrics "civicproof/internal/platform/metrics"
	ratelimitmw "civicproof/internal/ratelimit/middleware"
	ratelimitmodels "civicproof/internal/ratelimit/models"
	"civicproof/internal/verification/handler"
	"civicproof/pkg/platform/httputil"
	adminmw "civicproof/pkg/platform/middleware/admin"
	authmw "civicproof/pkg/platform/middleware/auth"
	"civicproof/pkg/platform/middleware/metadata"
	"civicproof/pkg/platform/middleware/requesttime"
)

// HealthCheck reports the state of one backing dependency.
type HealthCheck func(ctx context.Context) error

type routerDeps struct {
	logger      *slog.Logger
	handler     *handler.Handler
	validator   authmw.JWTValidator
	rateLimiter *ratelimitmw.Middleware
	adminToken  string
	gatherer    prometheus.Gatherer
	httpMetrics *platformmetrics.Metrics
	objects     http.Handler
	health      map[string]HealthCheck
}

func newRouter(d routerDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	if d.httpMetrics != nil {
		r.Use(d.httpMetrics.Middleware)
	}

	r.Get("/health", healthHandler(d.health))
	if d.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))
	}
	if d.objects != nil {
		r.Handle("/objects/*", d.objects)
	}

	r.Route("/api", func(r chi.Router) {
		// Strict submissions authenticate by worker email against the directory.
		r.Group(func(r chi.Router) {
			r.Use(d.rateLimiter.Limit(ratelimitmodels.ClassStrict))
			d.handler.RegisterStrict(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAuth(d.validator, d.logger))

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireRole(d.logger, jwttoken.RoleWorker))
				r.Use(d.rateLimiter.Limit(ratelimitmodels.ClassStandard))
				d.handler.RegisterWorker(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireRole(d.logger, jwttoken.RoleOfficial, jwttoken.RoleAdmin))
				d.handler.RegisterReview(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireRole(d.logger, jwttoken.RoleAdmin))
				d.handler.RegisterAdmin(r)
			})
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(d.adminToken, d.logger))
		d.handler.RegisterAdmin(r)
		d.handler.RegisterReview(r)
	})

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}
		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status":       overall,
			"dependencies": deps,
		})
	}
}
