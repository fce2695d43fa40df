package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/leasetrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/leasetrail/internal/httpserver/mw"
)

func init() { Register(registerMetrics) }

func registerMetrics(r chi.Router, d deps.Deps) {
	if !d.MetricsEnabled {
		return
	}
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)).Handle("/metrics", d.Metrics.Handler())
}
