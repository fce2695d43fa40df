// Package metrics exposes ingestion and query counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stream labels.
const (
	StreamDHCP = "dhcp"
	StreamHTTP = "http"
)

// Line results.
const (
	ResultParsed     = "parsed"
	ResultMalformed  = "malformed"
	ResultOutOfRange = "out_of_range"
)

type Recorder interface {
	IncLines(stream, result string)
	IncRecords(outcome string)
	IncConflicts()
	SetIndexSize(ips, runs int)
	IncRequests(route string, status int)
	ObserveRequestDuration(route string, d time.Duration)
	Handler() http.Handler
}

type Prometheus struct {
	registry        *prometheus.Registry
	lines           *prometheus.CounterVec
	records         *prometheus.CounterVec
	conflicts       prometheus.Counter
	indexIPs        prometheus.Gauge
	indexRuns       prometheus.Gauge
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New returns a Prometheus-backed recorder with its own registry, or a no-op
// recorder when disabled.
func New(enabled bool) Recorder {
	if !enabled {
		return Noop{}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Prometheus{
		registry: reg,

		lines: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leasetrail_lines_total",
			Help: "Log lines read, by stream and parse result",
		}, []string{"stream", "result"}),

		records: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leasetrail_records_total",
			Help: "HTTP records by correlation outcome",
		}, []string{"outcome"}),

		conflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "leasetrail_name_conflicts_total",
			Help: "Hardware addresses seen with more than one device name",
		}),

		indexIPs: f.NewGauge(prometheus.GaugeOpts{
			Name: "leasetrail_index_ips",
			Help: "IP addresses in the lease index",
		}),

		indexRuns: f.NewGauge(prometheus.GaugeOpts{
			Name: "leasetrail_index_runs",
			Help: "Ownership runs in the lease index",
		}),

		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leasetrail_http_requests_total",
			Help: "Query API requests",
		}, []string{"route", "status"}),

		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leasetrail_http_request_duration_seconds",
			Help:    "Query API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Prometheus) IncLines(stream, result string) {
	m.lines.WithLabelValues(stream, result).Inc()
}

func (m *Prometheus) IncRecords(outcome string) {
	m.records.WithLabelValues(outcome).Inc()
}

func (m *Prometheus) IncConflicts() {
	m.conflicts.Inc()
}

func (m *Prometheus) SetIndexSize(ips, runs int) {
	m.indexIPs.Set(float64(ips))
	m.indexRuns.Set(float64(runs))
}

func (m *Prometheus) IncRequests(route string, status int) {
	m.requests.WithLabelValues(route, statusBucket(status)).Inc()
}

func (m *Prometheus) ObserveRequestDuration(route string, d time.Duration) {
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Noop discards everything.
type Noop struct{}

func (Noop) IncLines(_, _ string)                           {}
func (Noop) IncRecords(_ string)                            {}
func (Noop) IncConflicts()                                  {}
func (Noop) SetIndexSize(_, _ int)                          {}
func (Noop) IncRequests(_ string, _ int)                    {}
func (Noop) ObserveRequestDuration(_ string, _ time.Duration) {}
func (Noop) Handler() http.Handler                          { return http.NotFoundHandler() }
