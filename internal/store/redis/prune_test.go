package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/leasetrail/internal/domain"
)

func TestPruneDropsExpiredRecords(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)

	at := domain.MustTimestamp(2019, 3, 3, 17, 8, 9)
	old := NewSink(client, Options{Run: "r1", TTL: time.Hour})
	require.NoError(t, old.WriteRecord(ctx, correlated("brians-air", at)))
	require.NoError(t, old.WriteRecord(ctx, correlated("lorrie", at)))
	require.NoError(t, old.Commit(ctx))

	mr.FastForward(50 * time.Minute)

	// a later run refreshes the index of one device only
	fresh := NewSink(client, Options{Run: "r2", TTL: time.Hour})
	require.NoError(t, fresh.WriteRecord(ctx, correlated("brians-air", at)))
	require.NoError(t, fresh.Commit(ctx))

	mr.FastForward(20 * time.Minute)

	st, err := Prune(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, PruneStats{Devices: 2, Records: 1, Emptied: 1}, st)

	members, err := client.ZRange(ctx, DeviceKey("brians-air"), 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{RecordKey("r2", 1)}, members)

	names, err := client.SMembers(ctx, AllDevicesKey()).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"brians-air"}, names)
}

func TestPruneNothingToDo(t *testing.T) {
	ctx := context.Background()
	_, client := newClient(t)

	s := NewSink(client, Options{Run: "r1"})
	require.NoError(t, s.WriteRecord(ctx, correlated("brians-air", domain.MustTimestamp(2019, 3, 3, 0, 0, 0))))
	require.NoError(t, s.Commit(ctx))

	st, err := Prune(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, PruneStats{Devices: 1}, st)
}
