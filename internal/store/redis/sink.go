package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/leasetrail/internal/domain"
)

// DefaultBatchSize is the number of queued writes flushed per round trip.
const DefaultBatchSize = 512

type Options struct {
	Run       string        // namespaces record keys, ex: a start timestamp
	TTL       time.Duration // expiry for every written key, 0 = none
	BatchSize int
}

// Sink pipelines leases and correlated records into Redis.
type Sink struct {
	client *redis.Client
	run    string
	ttl    time.Duration
	batch  int

	pipe   redis.Pipeliner
	queued int
	seq    int64
}

// record is the stored JSON form of a correlated record.
type record struct {
	Time   string            `json:"time"`
	MAC    string            `json:"mac"`
	Device string            `json:"device"`
	Attrs  map[string]string `json:"attrs"`
}

// NewSink creates a Redis sink. The client stays owned by the caller.
func NewSink(client *redis.Client, opts Options) *Sink {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Sink{
		client: client,
		run:    opts.Run,
		ttl:    opts.TTL,
		batch:  opts.BatchSize,
		pipe:   client.Pipeline(),
	}
}

func (s *Sink) WriteLease(ctx context.Context, at domain.Timestamp, ack domain.Ack) error {
	key := LeaseKey(ack.IP)
	s.pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(at.Unix()),
		Member: LeaseMember(ack.MAC, at.String()),
	})
	s.expire(ctx, key)
	return s.queue(ctx)
}

func (s *Sink) WriteRecord(ctx context.Context, rec domain.Correlated) error {
	data, err := json.Marshal(record{
		Time:   rec.Record.Time.String(),
		MAC:    rec.MAC,
		Device: rec.DeviceName,
		Attrs:  rec.Record.Attrs,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	s.seq++
	key := RecordKey(s.run, s.seq)
	s.pipe.Set(ctx, key, data, s.ttl)

	device := DeviceKey(rec.DeviceName)
	s.pipe.ZAdd(ctx, device, redis.Z{Score: float64(rec.Record.Time.Unix()), Member: key})
	s.expire(ctx, device)
	s.pipe.SAdd(ctx, AllDevicesKey(), rec.DeviceName)

	return s.queue(ctx)
}

func (s *Sink) expire(ctx context.Context, key string) {
	if s.ttl > 0 {
		s.pipe.Expire(ctx, key, s.ttl)
	}
}

func (s *Sink) queue(ctx context.Context) error {
	s.queued++
	if s.queued < s.batch {
		return nil
	}
	return s.flush(ctx)
}

func (s *Sink) flush(ctx context.Context) error {
	if s.queued == 0 {
		return nil
	}
	_, err := s.pipe.Exec(ctx)
	s.queued = 0
	s.pipe = s.client.Pipeline()
	if err != nil {
		return fmt.Errorf("failed to flush redis pipeline: %w", err)
	}
	return nil
}

// Commit sends whatever is still queued.
func (s *Sink) Commit(ctx context.Context) error {
	return s.flush(ctx)
}

// Close drops unsent writes. It does not close the client.
func (s *Sink) Close() error {
	s.pipe.Discard()
	s.queued = 0
	return nil
}

// Written returns the number of records written so far.
func (s *Sink) Written() int64 {
	return s.seq
}
