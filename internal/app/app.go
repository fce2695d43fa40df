package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/leasetrail/internal/allowlist"
	"github.com/MrSnakeDoc/leasetrail/internal/config"
	"github.com/MrSnakeDoc/leasetrail/internal/correlate"
	"github.com/MrSnakeDoc/leasetrail/internal/domain"
	"github.com/MrSnakeDoc/leasetrail/internal/httpserver"
	"github.com/MrSnakeDoc/leasetrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/leasetrail/internal/index"
	"github.com/MrSnakeDoc/leasetrail/internal/ingest"
	"github.com/MrSnakeDoc/leasetrail/internal/logger"
	"github.com/MrSnakeDoc/leasetrail/internal/metrics"
	"github.com/MrSnakeDoc/leasetrail/internal/redis"
	"github.com/MrSnakeDoc/leasetrail/internal/scheduler"
	"github.com/MrSnakeDoc/leasetrail/internal/snapshot"
	"github.com/MrSnakeDoc/leasetrail/internal/store"
	"github.com/MrSnakeDoc/leasetrail/internal/store/sqlite"
	redisstore "github.com/MrSnakeDoc/leasetrail/internal/store/redis"
	"github.com/MrSnakeDoc/leasetrail/internal/utils"
	"github.com/MrSnakeDoc/leasetrail/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	metrics     metrics.Recorder
	redisClient *goredis.Client
	redisSink   *redisstore.Sink
	started     time.Time
}

func New(cfg *config.Config) *App {
	return NewWithLogger(cfg, logger.New(cfg.LogLevel, cfg.PrettyLog))
}

// NewWithLogger is New with a caller supplied logger.
func NewWithLogger(cfg *config.Config, log logger.Logger) *App {
	return &App{
		cfg:     cfg,
		logger:  log,
		metrics: metrics.New(cfg.Metrics && cfg.ListenPort != ""),
		started: time.Now(),
	}
}

// Run ingests the configured logs and, when a listen address is set, serves
// the query API until interrupted.
func (a *App) Run(ctx context.Context) error {
	defer func() { _ = a.logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info(version.String())

	allow, err := a.loadAllowList()
	if err != nil {
		return err
	}

	defer a.closeRedis()
	sink, err := a.openSinks(ctx)
	if err != nil {
		return err
	}
	defer utils.MustClose(sink, a.logger)

	failures, err := ingest.OpenFailureLog(a.cfg.FailuresFile)
	if err != nil {
		return err
	}
	defer utils.MustClose(failures, a.logger)

	pipe := ingest.New(a.logger, sink, a.metrics, failures)

	idx, dir, err := a.loadIndex(ctx, pipe)
	if err != nil {
		return err
	}
	a.metrics.SetIndexSize(idx.Count(), idx.RunCount())
	a.logger.Info("lease index ready",
		logger.Int("ips", idx.Count()),
		logger.Int("runs", idx.RunCount()),
		logger.Int("devices", dir.Count()))

	if len(a.cfg.HTTPPaths) > 0 {
		c := correlate.New(idx, dir, allow, a.cfg.IPAttribute)
		st, err := pipe.Correlate(ctx, a.cfg.HTTPPaths, c)
		if err != nil {
			return fmt.Errorf("correlate http logs: %w", err)
		}
		a.logOutcomes(st)
	}

	if err := sink.Commit(ctx); err != nil {
		return err
	}
	if a.redisSink != nil {
		a.logger.Info("redis records written", logger.Int("records", int(a.redisSink.Written())))
	}
	if failures.Count() > 0 {
		a.logger.Warn("unparseable lines saved",
			logger.String("file", a.cfg.FailuresFile),
			logger.Int("count", failures.Count()))
	}

	if a.cfg.ListenPort == "" {
		a.logger.Info("ingestion finished", logger.Duration("elapsed", time.Since(a.started)))
		return nil
	}
	return a.serve(ctx, idx, dir, allow)
}

func (a *App) loadAllowList() (*allowlist.Set, error) {
	if a.cfg.AllowListFile == "" {
		set := allowlist.Default()
		a.logger.Info("using built-in allow-list", logger.Int("devices", set.Len()))
		return set, nil
	}
	set, err := allowlist.Load(a.cfg.AllowListFile)
	if err != nil {
		return nil, err
	}
	a.logger.Info("allow-list loaded",
		logger.String("file", a.cfg.AllowListFile),
		logger.Int("devices", set.Len()))
	return set, nil
}

func (a *App) openSinks(ctx context.Context) (store.Fanout, error) {
	var sinks store.Fanout

	if a.cfg.DBPath != "" {
		db, err := sqlite.Open(ctx, a.cfg.DBPath, a.logger)
		if err != nil {
			return nil, err
		}
		a.logger.Info("sqlite output enabled", logger.String("path", a.cfg.DBPath))
		sinks = append(sinks, db)
	}

	if a.cfg.RedisAddr != "" {
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           a.cfg.RedisAddr,
			User:           a.cfg.RedisUser,
			Password:       a.cfg.RedisPass,
			RedisDB:        a.cfg.RedisDB,
			DialTimeout:    a.cfg.RedisDT,
			ReadTimeout:    a.cfg.RedisRT,
			WriteTimeout:   a.cfg.RedisWT,
			PoolSize:       a.cfg.RedisPoolSize,
			ConnectTimeout: a.cfg.RedisConnectTimeout,
			RetryInterval:  a.cfg.RedisRetryInterval,
			MaxWait:        a.cfg.RedisMaxWait,
			PingTimeout:    a.cfg.RedisPingTimeout,
			WarnThreshold:  a.cfg.RedisWarnThreshold,
		}, a.logger)
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		a.redisClient = client
		a.redisSink = redisstore.NewSink(client, redisstore.Options{
			Run: runID(a.started),
			TTL: a.cfg.RedisTTL,
		})
		sinks = append(sinks, a.redisSink)
	}

	if len(sinks) == 0 {
		a.logger.Warn("no output configured, correlated records are discarded")
		sinks = append(sinks, store.Discard{})
	}
	return sinks, nil
}

// loadIndex replays the DHCP logs, or restores a snapshot when there are
// none. A freshly built index is written back to the snapshot file.
func (a *App) loadIndex(ctx context.Context, pipe *ingest.Pipeline) (*index.Index, *index.Directory, error) {
	var codec *snapshot.Codec
	if a.cfg.SnapshotFile != "" {
		c, err := snapshot.NewCodec()
		if err != nil {
			return nil, nil, err
		}
		defer c.Close()
		codec = c
	}

	if len(a.cfg.DHCPPaths) == 0 {
		if codec == nil {
			return nil, nil, config.ErrNoInput
		}
		snap, err := codec.Load(a.cfg.SnapshotFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load snapshot: %w", err)
		}
		idx, dir, err := index.Restore(snap.State)
		if err != nil {
			return nil, nil, fmt.Errorf("restore snapshot %s: %w", a.cfg.SnapshotFile, err)
		}
		a.logger.Info("lease index restored from snapshot",
			logger.String("file", a.cfg.SnapshotFile),
			logger.String("created", snap.Created.Format(time.RFC3339)))
		return idx, dir, nil
	}

	b := index.NewBuilder(pipe.OnConflict)
	st, err := pipe.BuildIndex(ctx, a.cfg.DHCPPaths, b)
	if err != nil {
		return nil, nil, fmt.Errorf("build lease index: %w", err)
	}
	idx, dir := b.Finalize()
	a.logger.Info("dhcp acks indexed",
		logger.Int("acks", st.Acks),
		logger.Int("conflicts", b.Conflicts()))

	if codec != nil {
		if err := codec.Save(a.cfg.SnapshotFile, index.Export(idx, dir)); err != nil {
			return nil, nil, fmt.Errorf("save snapshot: %w", err)
		}
		a.logger.Info("snapshot saved", logger.String("file", a.cfg.SnapshotFile))
	}
	return idx, dir, nil
}

func (a *App) logOutcomes(st ingest.Stats) {
	fields := make([]logger.Field, 0, 5)
	for _, r := range []domain.DropReason{domain.Kept, domain.DropNoIP, domain.DropNoOwner, domain.DropNoName, domain.DropNotAllowed} {
		fields = append(fields, logger.Int(r.String(), st.Records[r]))
	}
	a.logger.Info("http records correlated", fields...)
}

func (a *App) serve(ctx context.Context, idx *index.Index, dir *index.Directory, allow *allowlist.Set) error {
	d := deps.Deps{
		Logger:         a.logger,
		StartTime:      a.started,
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedCIDRS:   a.cfg.AllowedCIDRS,
		TrustProxy:     a.cfg.TrustProxy,
		RateBurst:      a.cfg.RateBurst,
		RatePerMin:     a.cfg.RatePerMin,
		Index:          idx,
		Directory:      dir,
		AllowList:      allow,
		Metrics:        a.metrics,
		MetricsEnabled: a.cfg.Metrics,
		RedisClient:    a.redisClient,
	}
	server := httpserver.New(a.cfg, a.logger, d)

	if a.redisClient != nil && a.cfg.RedisTTL > 0 {
		pruner := scheduler.NewPruner(a.redisClient, a.logger, a.cfg.RedisPruneInterval)
		pruner.Start(ctx)
		defer pruner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	a.logger.Info("leasetrail stopped cleanly")
	return nil
}

// runID namespaces this run's redis records: sortable by start time, unique
// across runs started in the same second.
func runID(started time.Time) string {
	return started.UTC().Format("20060102T150405") + "-" + uuid.NewString()[:8]
}

func (a *App) closeRedis() {
	if a.redisClient == nil {
		return
	}
	if err := a.redisClient.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
	}
}
