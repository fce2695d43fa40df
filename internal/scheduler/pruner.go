package scheduler

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/leasetrail/internal/logger"
	redisstore "github.com/MrSnakeDoc/leasetrail/internal/store/redis"
)

// DefaultPruneInterval is used when no interval is configured.
const DefaultPruneInterval = 10 * time.Minute

// Pruner periodically removes references to expired records from the redis
// device indexes.
type Pruner struct {
	client   *redis.Client
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	done     chan struct{}
}

func NewPruner(client *redis.Client, log logger.Logger, interval time.Duration) *Pruner {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	return &Pruner{
		client:   client,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval until Stop is
// called or ctx ends.
func (p *Pruner) Start(ctx context.Context) {
	if err := p.Prune(ctx); err != nil {
		p.logger.Warn("initial redis prune failed", logger.Error(err))
	}

	ticker := time.NewTicker(p.interval)
	go func() {
		defer close(p.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := p.Prune(ctx); err != nil {
					p.logger.Error("redis prune failed", logger.Error(err))
				}
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the background loop and waits for it to return.
func (p *Pruner) Stop() {
	close(p.stopCh)
	<-p.done
}

// Prune runs a single pass.
func (p *Pruner) Prune(ctx context.Context) error {
	st, err := redisstore.Prune(ctx, p.client)
	if err != nil {
		return err
	}
	if st.Records > 0 || st.Emptied > 0 {
		p.logger.Info("redis device indexes pruned",
			logger.Int("devices", st.Devices),
			logger.Int("records_removed", st.Records),
			logger.Int("devices_removed", st.Emptied))
	} else {
		p.logger.Debug("nothing to prune in redis")
	}
	return nil
}
