package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/leasetrail/internal/utils"
)

// RateLimitConfig is a per client token bucket: Burst requests at once,
// refilled at RefillPerMin.
type RateLimitConfig struct {
	Burst         int
	RefillPerMin  int
	MaxEntries    int
	SweepInterval time.Duration
	IdleTTL       time.Duration
	TrustProxy    bool             // resolve the client from proxy headers
	Now           func() time.Time // defaults to time.Now
}

type bucket struct {
	tokens   float64
	lastRef  time.Time
	lastSeen time.Time
}

type limiter struct {
	cfg       RateLimitConfig
	rate      float64 // tokens per second
	capacity  float64
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RefillPerMin < 1 {
		cfg.RefillPerMin = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &limiter{
		cfg:       cfg,
		rate:      float64(cfg.RefillPerMin) / 60.0,
		capacity:  float64(cfg.Burst),
		buckets:   make(map[string]*bucket, 256),
		lastSweep: cfg.Now(),
	}
}

// allow takes a token for key. When none is left it reports how many
// seconds until one will be.
func (l *limiter) allow(key string, now time.Time) (ok bool, remaining int, retryAfterSec int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.cfg.SweepInterval ||
		(l.cfg.MaxEntries > 0 && len(l.buckets) >= l.cfg.MaxEntries) {
		l.sweep(now)
	}

	b := l.buckets[key]
	if b == nil {
		b = &bucket{tokens: l.capacity, lastRef: now}
		l.buckets[key] = b
	}
	b.lastSeen = now

	if elapsed := now.Sub(b.lastRef).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.rate)
		b.lastRef = now
	}

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true, int(math.Floor(b.tokens)), 0
	}

	sec := int(math.Ceil((1.0 - b.tokens) / l.rate))
	if sec < 1 {
		sec = 1
	}
	return false, 0, sec
}

func (l *limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.cfg.IdleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// RateLimit rejects clients that exceed their bucket with 429.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limitStr := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := utils.ClientIP(r, l.cfg.TrustProxy)

			ok, remaining, retry := l.allow(key, l.cfg.Now())
			w.Header().Set("X-RateLimit-Limit", limitStr)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
