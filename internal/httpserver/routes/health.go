package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/leasetrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/leasetrail/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/leasetrail/internal/httpserver/mw"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)).Get("/readyz", handlers.Readyz(d))
}
