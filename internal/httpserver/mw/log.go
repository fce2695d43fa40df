package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/leasetrail/internal/logger"
	"github.com/MrSnakeDoc/leasetrail/internal/metrics"
)

// statusWriter captures status code and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	// Ensure status is set if handler wrote body without calling WriteHeader.
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusWriter) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Log returns a middleware that logs one line per HTTP request.
func Log(loggerClient logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(ww, r)

			reqID := middleware.GetReqID(r.Context())
			loggerClient.Info("http_request",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", ww.code()),
				logger.Int("bytes", ww.bytes),
				logger.Duration("duration", time.Since(start)),
				logger.String("remote_ip", r.RemoteAddr),
				logger.String("user_agent", r.UserAgent()),
				logger.String("request_id", reqID),
			)
		})
	}
}

// Metrics counts requests and their latency per route pattern, so
// /timeline/10.0.0.5 and /timeline/10.0.0.6 share one series.
func Metrics(rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			rec.IncRequests(route, ww.code())
			rec.ObserveRequestDuration(route, time.Since(start))
		})
	}
}
