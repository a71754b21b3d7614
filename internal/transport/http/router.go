// Package httptransport wires the HTTP surface: middleware stack, public and
// bearer-guarded routes, health checks, and metrics exposure.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/platform/health"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/platform/middleware"
)

// Handlers groups the per-context handlers the router mounts. Each entry is
// optional so partial deployments (a verifier-only node, for instance) reuse
// the same router.
type Handlers struct {
	Registry interface{ Register(chi.Router) }
	Issuer   interface{ Register(guarded, open chi.Router) }
	Holder   interface{ Register(chi.Router) }
	Verifier interface{ Register(chi.Router) }
	Health   *health.Handler
}

// NewRouter assembles the full middleware stack and mounts all routes.
// Registry writes and issuance require a bearer token; the holder and
// verifier surfaces are open, as are health and metrics.
func NewRouter(h Handlers, validator middleware.TokenValidator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger))
	// Proof generation runs a full proving pipeline inline.
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(middleware.ContentTypeJSON)

	if h.Health != nil {
		h.Health.Register(r)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(open chi.Router) {
		if h.Holder != nil {
			h.Holder.Register(open)
		}
		if h.Verifier != nil {
			h.Verifier.Register(open)
		}
	})

	r.Group(func(guarded chi.Router) {
		guarded.Use(middleware.RequireAuth(validator, logger))
		if h.Registry != nil {
			h.Registry.Register(guarded)
		}
		if h.Issuer != nil {
			h.Issuer.Register(guarded, r)
		}
	})

	return r
}
