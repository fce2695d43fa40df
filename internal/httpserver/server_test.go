package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/leasetrail/internal/allowlist"
	"github.com/MrSnakeDoc/leasetrail/internal/config"
	"github.com/MrSnakeDoc/leasetrail/internal/domain"
	"github.com/MrSnakeDoc/leasetrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/leasetrail/internal/index"
	"github.com/MrSnakeDoc/leasetrail/internal/logger"
	"github.com/MrSnakeDoc/leasetrail/internal/metrics"
)

const (
	macA = "aa:aa:aa:aa:aa:aa"
	macB = "bb:bb:bb:bb:bb:bb"
)

func ack(ts domain.Timestamp, ip, mac, name string) domain.DhcpLogEntry {
	return domain.DhcpLogEntry{
		Time:  ts,
		Event: domain.DhcpEvent{Kind: domain.DhcpAck, Ack: &domain.Ack{IP: ip, MAC: mac, DeviceName: name}},
	}
}

func testDeps(t *testing.T) deps.Deps {
	t.Helper()
	b := index.NewBuilder(nil)
	b.Add(ack(domain.MustTimestamp(2019, 3, 3, 0, 0, 0), "10.0.0.5", macA, "Joes-iPhone"))
	b.Add(ack(domain.MustTimestamp(2019, 3, 3, 0, 10, 0), "10.0.0.5", macB, "printer"))
	b.Add(ack(domain.MustTimestamp(2019, 3, 3, 1, 0, 0), "10.0.0.9", macA, ""))
	idx, dir := b.Finalize()

	now := time.Date(2019, 3, 3, 0, 5, 0, 0, time.UTC)
	return deps.Deps{
		Logger:         logger.Nop(),
		StartTime:      now.Add(-time.Minute),
		Version:        "test",
		TimeNow:        func() time.Time { return now },
		Index:          idx,
		Directory:      dir,
		AllowList:      allowlist.New("joes-iphone"),
		Metrics:        metrics.New(true),
		MetricsEnabled: true,
	}
}

func serve(t *testing.T, d deps.Deps, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	s := New(&config.Config{ListenPort: ":0"}, d.Logger, d)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "192.168.1.10:40000"
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	rec := serve(t, testDeps(t), http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, 60.0, body["uptime_seconds"])
}

func TestReadyz(t *testing.T) {
	rec := serve(t, testDeps(t), http.MethodGet, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["ready"])
	components := body["components"].(map[string]any)
	idx := components["index"].(map[string]any)
	assert.Equal(t, 2.0, idx["ips"])
	assert.Equal(t, 3.0, idx["runs"])
	assert.NotContains(t, components, "redis")

	d := testDeps(t)
	d.Index = nil
	rec = serve(t, d, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		status  int
		mac     string
		allowed bool
	}{
		{"before change", "/lookup?ip=10.0.0.5&at=2019:03:03-00:07:00", http.StatusOK, macA, true},
		{"at change is prior owner", "/lookup?ip=10.0.0.5&at=2019:03:03-00:10:00", http.StatusOK, macA, true},
		{"after change", "/lookup?ip=10.0.0.5&at=2019:03:03-00:10:01", http.StatusOK, macB, false},
		{"defaults to now", "/lookup?ip=10.0.0.5", http.StatusOK, macA, true},
		{"before first run", "/lookup?ip=10.0.0.5&at=1999:01:01-00:00:00", http.StatusNotFound, "", false},
		{"unknown ip", "/lookup?ip=10.9.9.9&at=2019:03:03-00:07:00", http.StatusNotFound, "", false},
		{"missing ip", "/lookup?at=2019:03:03-00:07:00", http.StatusBadRequest, "", false},
		{"bad at", "/lookup?ip=10.0.0.5&at=2019-03-03", http.StatusBadRequest, "", false},
		{"at out of range", "/lookup?ip=10.0.0.5&at=2019:02:30-00:00:00", http.StatusBadRequest, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, testDeps(t), http.MethodGet, tt.target)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode(t, rec)
			if tt.status != http.StatusOK {
				assert.NotEmpty(t, body["error"])
				return
			}
			assert.Equal(t, tt.mac, body["mac"])
			assert.Equal(t, tt.allowed, body["allowed"])
		})
	}
}

func TestTimeline(t *testing.T) {
	rec := serve(t, testDeps(t), http.MethodGet, "/timeline/10.0.0.5")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		IP   string `json:"ip"`
		Runs []struct {
			Start string `json:"start"`
			MAC   string `json:"mac"`
			Name  string `json:"name"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "10.0.0.5", body.IP)
	require.Len(t, body.Runs, 2)
	assert.Equal(t, "2019:03:03-00:00:00", body.Runs[0].Start)
	assert.Equal(t, "Joes-iPhone", body.Runs[0].Name)
	assert.Equal(t, macB, body.Runs[1].MAC)

	rec = serve(t, testDeps(t), http.MethodGet, "/timeline/10.9.9.9")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDevice(t *testing.T) {
	rec := serve(t, testDeps(t), http.MethodGet, "/devices/"+macA)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Joes-iPhone", body["name"])
	assert.Equal(t, true, body["allowed"])
	assert.Equal(t, []any{"10.0.0.5", "10.0.0.9"}, body["ips"])

	rec = serve(t, testDeps(t), http.MethodGet, "/devices/00:00:00:00:00:00")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAllowedCIDRS(t *testing.T) {
	d := testDeps(t)
	d.AllowedCIDRS = []string{"10.0.0.0/8"}

	rec := serve(t, d, http.MethodGet, "/lookup?ip=10.0.0.5")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// liveness stays open
	rec = serve(t, d, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	d := testDeps(t)
	d.RateBurst = 2
	d.RatePerMin = 1
	s := New(&config.Config{}, d.Logger, d)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/timeline/10.0.0.5", nil)
		req.RemoteAddr = "192.168.1.10:40000"
		s.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestMetricsRoute(t *testing.T) {
	d := testDeps(t)
	s := New(&config.Config{}, d.Logger, d)

	for _, target := range []string{"/timeline/10.0.0.5", "/timeline/10.0.0.9", "/metrics"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, rec.Code, target)
		if target == "/metrics" {
			assert.Contains(t, rec.Body.String(),
				`leasetrail_http_requests_total{route="/timeline/{ip}",status="2xx"} 2`)
		}
	}

	d.MetricsEnabled = false
	rec := serve(t, d, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "404"))
}
