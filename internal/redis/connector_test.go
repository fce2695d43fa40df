package redis

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/leasetrail/internal/logger"
)

func options(addr string) ConnectOptions {
	return ConnectOptions{
		Addr:           addr,
		DialTimeout:    50 * time.Millisecond,
		ReadTimeout:    50 * time.Millisecond,
		WriteTimeout:   50 * time.Millisecond,
		PoolSize:       2,
		ConnectTimeout: 300 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestNewConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), options(mr.Addr()), logger.Nop())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.Exists("k"))
}

func TestNewGivesUp(t *testing.T) {
	// grab a free port and release it so nothing is listening there
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	start := time.Now()
	_, err = New(context.Background(), options(addr), logger.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis unavailable at "+addr)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNewRejectsBadOptions(t *testing.T) {
	tests := map[string]func(*ConnectOptions){
		"empty addr":       func(o *ConnectOptions) { o.Addr = "" },
		"connect timeout":  func(o *ConnectOptions) { o.ConnectTimeout = 0 },
		"retry interval":   func(o *ConnectOptions) { o.RetryInterval = 0 },
		"max wait":         func(o *ConnectOptions) { o.MaxWait = -time.Second },
		"ping timeout":     func(o *ConnectOptions) { o.PingTimeout = 0 },
		"warn threshold":   func(o *ConnectOptions) { o.WarnThreshold = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			opts := options("127.0.0.1:6379")
			mutate(&opts)
			_, err := New(context.Background(), opts, logger.Nop())
			assert.Error(t, err)
		})
	}
}
