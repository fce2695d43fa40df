package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/leasetrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/leasetrail/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/leasetrail/internal/httpserver/mw"
)

func init() { Register(registerQuery) }

func registerQuery(r chi.Router, d deps.Deps) {
	chain := []func(http.Handler) http.Handler{
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
	}
	if d.RateBurst > 0 {
		chain = append(chain, mw.RateLimit(mw.RateLimitConfig{
			Burst:        d.RateBurst,
			RefillPerMin: d.RatePerMin,
			MaxEntries:   10000,
			TrustProxy:   d.TrustProxy,
			Now:          d.TimeNow,
		}))
	}

	q := r.With(chain...)
	q.Get("/lookup", handlers.Lookup(d))
	q.Get("/timeline/{ip}", handlers.Timeline(d))
	q.Get("/devices/{mac}", handlers.Device(d))
}
