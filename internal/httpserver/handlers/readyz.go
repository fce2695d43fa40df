package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/leasetrail/internal/httpserver/deps"
)

type componentStatus struct {
	OK      bool   `json:"ok"`
	IPs     *int   `json:"ips,omitempty"`
	Runs    *int   `json:"runs,omitempty"`
	Devices *int   `json:"devices,omitempty"`
	Error   string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz reports whether the index is loaded and, when a Redis sink is
// configured, whether Redis answers. Only the index decides readiness.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"index": indexStatus(d),
		}
		if d.RedisClient != nil {
			components["redis"] = checkRedis(r.Context(), d)
		}

		resp := readyzResponse{
			Ready:      components["index"].OK,
			Components: components,
		}
		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func indexStatus(d deps.Deps) componentStatus {
	if d.Index == nil || d.Directory == nil {
		return componentStatus{OK: false, Error: "index not loaded"}
	}
	ips, runs, devices := d.Index.Count(), d.Index.RunCount(), d.Directory.Count()
	return componentStatus{OK: true, IPs: &ips, Runs: &runs, Devices: &devices}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	return componentStatus{OK: true}
}
