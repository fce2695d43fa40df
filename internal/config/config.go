package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Inputs
	DHCPPaths []string // files or directories of DHCP gateway logs
	HTTPPaths []string // files or directories of HTTP proxy logs

	// Core
	IPAttribute   string // HTTP attribute holding the client IP (default: srcip)
	AllowListFile string // optional YAML allow-list, empty = built-in names
	SnapshotFile  string // optional frozen-index snapshot (zstd JSON)

	// Outputs
	DBPath       string        // sqlite output, empty disables
	FailuresFile string        // raw unparseable lines, empty disables
	RedisAddr    string        // optional redis sink, ex: "localhost:6379"
	RedisUser    string        // optional
	RedisPass    string        // optional
	RedisDB      int           // Redis DB number
	RedisTTL     time.Duration // expiry for redis keys, 0 = none

	RedisPruneInterval time.Duration // while serving, prune expired records from device indexes

	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// Query API (optional)
	ListenPort      string        // ex: ":8080", empty = exit after ingestion
	ShutdownTimeout time.Duration // ex: 5s
	Metrics         bool          // expose /metrics
	AllowedCIDRS    []string      // optional, restrict API access to specific IPs/CIDRs
	TrustProxy      bool          // true => trust X-Forwarded-For headers
	RateBurst       int           // per client burst on query routes, 0 = unlimited
	RatePerMin      int           // per client refill on query routes
}

// ErrNoInput is returned when neither DHCP input nor a snapshot is configured.
var ErrNoInput = errors.New("no DHCP input: pass -dhcp PATH or set LEASETRAIL_SNAPSHOT_FILE")

// Load reads the environment, then applies command-line flags from args
// (without the program name). Flags win over the environment.
func Load(args []string) (*Config, error) {
	cfg := &Config{
		// Logging
		LogLevel:  getenv("LEASETRAIL_LOG_LEVEL", "info"),
		PrettyLog: mustBool("LEASETRAIL_PRETTY_LOG", true),

		// Inputs
		DHCPPaths: splitAndTrim(getenv("LEASETRAIL_DHCP_PATHS", "")),
		HTTPPaths: splitAndTrim(getenv("LEASETRAIL_HTTP_PATHS", "")),

		// Core
		IPAttribute:   getenv("LEASETRAIL_IP_ATTRIBUTE", "srcip"),
		AllowListFile: getenv("LEASETRAIL_ALLOWLIST_FILE", ""),
		SnapshotFile:  getenv("LEASETRAIL_SNAPSHOT_FILE", ""),

		// Outputs
		DBPath:       getenvAllowEmpty("LEASETRAIL_DB_PATH", "output.db"),
		FailuresFile: getenvAllowEmpty("LEASETRAIL_FAILURES_FILE", "failures.log"),
		RedisAddr:    getenv("LEASETRAIL_REDIS_ADDR", ""),
		RedisUser:    getenv("LEASETRAIL_REDIS_USERNAME", ""),
		RedisPass:    getenv("LEASETRAIL_REDIS_PASSWORD", ""),
		RedisDB:      getenvInt("LEASETRAIL_REDIS_DB", 0),
		RedisTTL:     mustDuration("LEASETRAIL_REDIS_TTL", 0),

		RedisPruneInterval: mustDuration("LEASETRAIL_REDIS_PRUNE_INTERVAL", 10*time.Minute),

		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Query API
		ListenPort:      getenv("LEASETRAIL_LISTEN_PORT", ""),
		ShutdownTimeout: mustDuration("LEASETRAIL_SHUTDOWN_TIMEOUT", 5*time.Second),
		Metrics:         mustBool("LEASETRAIL_METRICS", true),
		AllowedCIDRS:    parseAllowedIPs(getenv("LEASETRAIL_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("LEASETRAIL_TRUST_PROXY", false),
		RateBurst:       getenvInt("LEASETRAIL_RATE_BURST", 120),
		RatePerMin:      getenvInt("LEASETRAIL_RATE_PER_MIN", 600),
	}

	if err := cfg.applyFlags(args); err != nil {
		return nil, err
	}

	if len(cfg.DHCPPaths) == 0 && cfg.SnapshotFile == "" {
		return nil, ErrNoInput
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPass != "" {
			cfgCopy.RedisPass = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg, nil
}

func (c *Config) applyFlags(args []string) error {
	fs := flag.NewFlagSet("leasetrail", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var dhcp, http pathList
	fs.Var(&dhcp, "dhcp", "DHCP log file or directory (repeatable)")
	fs.Var(&http, "http", "HTTP proxy log file or directory (repeatable)")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "sqlite output path, empty disables")
	fs.StringVar(&c.AllowListFile, "allowlist", c.AllowListFile, "YAML allow-list file")
	fs.StringVar(&c.SnapshotFile, "snapshot", c.SnapshotFile, "frozen index snapshot file")
	fs.StringVar(&c.ListenPort, "listen", c.ListenPort, "serve the query API on this address after ingestion")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if len(dhcp) > 0 {
		c.DHCPPaths = dhcp
	}
	if len(http) > 0 {
		c.HTTPPaths = http
	}
	return nil
}

// pathList collects a repeatable flag.
type pathList []string

func (p *pathList) String() string { return strings.Join(*p, ",") }

func (p *pathList) Set(v string) error {
	*p = append(*p, splitAndTrim(v)...)
	return nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvAllowEmpty is getenv, except that a variable set to "" disables the
// default instead of falling back to it.
func getenvAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
