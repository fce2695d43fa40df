package mw

import (
	"testing"
	"time"
)

func TestLimiterRefill(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{Burst: 2, RefillPerMin: 60, Now: func() time.Time { return now }})

	for i := 0; i < 2; i++ {
		if ok, _, _ := l.allow("a", now); !ok {
			t.Fatalf("request %d rejected within burst", i)
		}
	}
	ok, _, retry := l.allow("a", now)
	if ok || retry != 1 {
		t.Fatalf("allow() = %v retry %d, want rejection with retry 1", ok, retry)
	}

	// other clients have their own bucket
	if ok, _, _ := l.allow("b", now); !ok {
		t.Fatal("second client rejected")
	}

	if ok, _, _ := l.allow("a", now.Add(time.Second)); !ok {
		t.Fatal("token not refilled after one second")
	}
}

func TestLimiterSweepsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{Burst: 1, RefillPerMin: 1, IdleTTL: time.Minute, SweepInterval: time.Minute, Now: func() time.Time { return now }})

	l.allow("a", now)
	l.allow("b", now.Add(2*time.Minute))

	if _, ok := l.buckets["a"]; ok {
		t.Error("idle bucket a not swept")
	}
	if _, ok := l.buckets["b"]; !ok {
		t.Error("active bucket b missing")
	}
}
