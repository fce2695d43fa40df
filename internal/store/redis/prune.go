package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// PruneStats reports what a Prune pass removed.
type PruneStats struct {
	Devices int // device names scanned
	Records int // dangling record references removed
	Emptied int // devices dropped from the all-devices set
}

// Prune removes device index members whose record key has expired, and
// forgets devices left without records. Record keys and device indexes carry
// separate TTLs, so the index outlives the oldest records it points to.
func Prune(ctx context.Context, client *redis.Client) (PruneStats, error) {
	var st PruneStats

	names, err := client.SMembers(ctx, AllDevicesKey()).Result()
	if err != nil {
		return st, fmt.Errorf("failed to list devices: %w", err)
	}

	for _, name := range names {
		st.Devices++
		removed, left, err := pruneDevice(ctx, client, DeviceKey(name))
		if err != nil {
			return st, err
		}
		st.Records += removed
		if left == 0 {
			if err := client.SRem(ctx, AllDevicesKey(), name).Err(); err != nil {
				return st, fmt.Errorf("failed to drop device %s: %w", name, err)
			}
			st.Emptied++
		}
	}
	return st, nil
}

// pruneDevice returns the number of members removed and kept.
func pruneDevice(ctx context.Context, client *redis.Client, key string) (int, int, error) {
	members, err := client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if len(members) == 0 {
		return 0, 0, nil
	}

	pipe := client.Pipeline()
	checks := make([]*redis.IntCmd, len(members))
	for i, m := range members {
		checks[i] = pipe.Exists(ctx, m)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to check records of %s: %w", key, err)
	}

	stale := make([]any, 0)
	for i, c := range checks {
		if c.Val() == 0 {
			stale = append(stale, members[i])
		}
	}
	if len(stale) == 0 {
		return 0, len(members), nil
	}
	if err := client.ZRem(ctx, key, stale...).Err(); err != nil {
		return 0, 0, fmt.Errorf("failed to prune %s: %w", key, err)
	}
	return len(stale), len(members) - len(stale), nil
}
