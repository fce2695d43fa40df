package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/leasetrail/internal/allowlist"
	"github.com/MrSnakeDoc/leasetrail/internal/index"
	"github.com/MrSnakeDoc/leasetrail/internal/logger"
	"github.com/MrSnakeDoc/leasetrail/internal/metrics"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	AllowedCIDRS   []string         // IPs allowed to access the API
	TrustProxy     bool             // true if running behind a trusted reverse proxy
	RateBurst      int              // per client burst for query routes, 0 disables limiting
	RatePerMin     int              // per client refill for query routes
	Index          *index.Index     // frozen lease index
	Directory      *index.Directory // MAC -> device name
	AllowList      *allowlist.Set   // device names whose traffic is kept
	Metrics        metrics.Recorder // never nil, metrics.Noop when disabled
	MetricsEnabled bool             // expose /metrics
	RedisClient    *redis.Client    // optional, checked by /readyz
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
