package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/leasetrail/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

// Healthz reports liveness and build information.
func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: d.Now().Sub(start).Round(time.Millisecond).Seconds(),
		})
	}
}
