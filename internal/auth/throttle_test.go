package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeCounter mimics INCR/EXPIRE against a map.
type fakeCounter struct {
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	if f.err != nil {
		cmd := redis.NewIntCmd(ctx, "incr", key)
		cmd.SetErr(f.err)
		return cmd
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeCounter) Expire(_ context.Context, key string, d time.Duration) *redis.BoolCmd {
	f.expires[key] = d
	return redis.NewBoolResult(true, nil)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoginLimiter_NilAllowsEverything(t *testing.T) {
	var l *LoginLimiter
	for i := 0; i < 100; i++ {
		if !l.Allow(context.Background(), "1.2.3.4") {
			t.Fatal("nil limiter should always allow")
		}
	}
}

func TestLoginLimiter_BlocksAfterLimit(t *testing.T) {
	fc := newFakeCounter()
	l := NewLoginLimiter(fc, 3, time.Minute, quietLogger())
	l.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 30, 0, time.UTC) }

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if !l.Allow(ctx, "1.2.3.4") {
			t.Fatalf("attempt %d should be allowed", i)
		}
	}
	if l.Allow(ctx, "1.2.3.4") {
		t.Error("attempt 4 should be blocked")
	}
	if !l.Allow(ctx, "5.6.7.8") {
		t.Error("another client should have its own budget")
	}
}

func TestLoginLimiter_ExpirySetOnceAndWindowResets(t *testing.T) {
	fc := newFakeCounter()
	l := NewLoginLimiter(fc, 1, time.Minute, quietLogger())
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ctx := context.Background()
	l.Allow(ctx, "c")
	if l.Allow(ctx, "c") {
		t.Fatal("second attempt in the same window should be blocked")
	}
	if len(fc.expires) != 1 {
		t.Errorf("Expire called for %d keys, want 1", len(fc.expires))
	}
	for _, d := range fc.expires {
		if d != time.Minute {
			t.Errorf("expiry = %v, want 1m", d)
		}
	}

	now = now.Add(time.Minute)
	if !l.Allow(ctx, "c") {
		t.Error("a new window should start a fresh count")
	}
}

func TestLoginLimiter_FailsOpen(t *testing.T) {
	fc := newFakeCounter()
	fc.err = errors.New("connection refused")
	l := NewLoginLimiter(fc, 1, time.Minute, quietLogger())

	for i := 0; i < 5; i++ {
		if !l.Allow(context.Background(), "c") {
			t.Fatal("limiter should allow when redis is down")
		}
	}
}
