package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/leasetrail/internal/domain"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func correlated(name string, at domain.Timestamp) domain.Correlated {
	return domain.Correlated{
		Record: domain.HTTPRecord{
			Time:  at,
			Attrs: map[string]string{"srcip": "10.0.0.5", "url": "http://example.com/"},
		},
		MAC:        "aa:bb:cc:dd:ee:ff",
		DeviceName: name,
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "leasetrail:record:r1:7", RecordKey("r1", 7))
	assert.Equal(t, "leasetrail:device:brians-air", DeviceKey("brians-air"))
	assert.Equal(t, "leasetrail:lease:10.0.0.5", LeaseKey("10.0.0.5"))
	assert.Equal(t, "aa:bb:cc:dd:ee:ff@2019:03:03-17:08:09", LeaseMember("aa:bb:cc:dd:ee:ff", "2019:03:03-17:08:09"))
}

func TestSinkWritesOnCommit(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	s := NewSink(client, Options{Run: "r1"})

	at := domain.MustTimestamp(2019, 3, 3, 17, 8, 9)
	require.NoError(t, s.WriteLease(ctx, at, domain.Ack{IP: "10.0.0.5", MAC: "aa:bb:cc:dd:ee:ff"}))
	require.NoError(t, s.WriteRecord(ctx, correlated("brians-air", at)))

	// nothing leaves the pipeline before Commit
	assert.False(t, mr.Exists(RecordKey("r1", 1)))

	require.NoError(t, s.Commit(ctx))
	require.NoError(t, s.Close())

	raw, err := client.Get(ctx, RecordKey("r1", 1)).Bytes()
	require.NoError(t, err)
	var got record
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "2019:03:03-17:08:09", got.Time)
	assert.Equal(t, "brians-air", got.Device)
	assert.Equal(t, "10.0.0.5", got.Attrs["srcip"])

	members, err := client.ZRange(ctx, DeviceKey("brians-air"), 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{RecordKey("r1", 1)}, members)

	leases, err := client.ZRangeWithScores(ctx, LeaseKey("10.0.0.5"), 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, leases, 1)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff@2019:03:03-17:08:09", leases[0].Member)
	assert.Equal(t, float64(at.Unix()), leases[0].Score)

	devices, err := client.SMembers(ctx, AllDevicesKey()).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"brians-air"}, devices)
	assert.Equal(t, int64(1), s.Written())
}

func TestSinkFlushesFullBatches(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	s := NewSink(client, Options{Run: "r1", BatchSize: 2})

	at := domain.MustTimestamp(2019, 3, 3, 17, 8, 9)
	require.NoError(t, s.WriteRecord(ctx, correlated("a", at)))
	assert.False(t, mr.Exists(RecordKey("r1", 1)))
	require.NoError(t, s.WriteRecord(ctx, correlated("b", at)))
	assert.True(t, mr.Exists(RecordKey("r1", 2)))

	require.NoError(t, s.WriteRecord(ctx, correlated("c", at)))
	require.NoError(t, s.Close())
	assert.False(t, mr.Exists(RecordKey("r1", 3)), "Close drops unsent writes")
}

func TestSinkTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	s := NewSink(client, Options{Run: "r1", TTL: time.Hour})

	at := domain.MustTimestamp(2019, 3, 3, 17, 8, 9)
	require.NoError(t, s.WriteLease(ctx, at, domain.Ack{IP: "10.0.0.5", MAC: "aa:bb:cc:dd:ee:ff"}))
	require.NoError(t, s.WriteRecord(ctx, correlated("brians-air", at)))
	require.NoError(t, s.Commit(ctx))

	assert.Equal(t, time.Hour, mr.TTL(RecordKey("r1", 1)))
	assert.Equal(t, time.Hour, mr.TTL(DeviceKey("brians-air")))
	assert.Equal(t, time.Hour, mr.TTL(LeaseKey("10.0.0.5")))

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists(RecordKey("r1", 1)))
}
