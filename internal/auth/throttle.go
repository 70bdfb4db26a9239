package auth

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateCounter is the part of a Redis client the limiter needs.
// *redis.Client and *redis.ClusterClient both satisfy it.
type RateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// LoginLimiter caps login attempts per client in a fixed window.
//
// A nil *LoginLimiter allows everything, which is how the server runs
// without Redis. Redis errors also allow the attempt: losing the throttle
// is better than locking the owner out of their own admin page.
type LoginLimiter struct {
	counter RateCounter
	limit   int64
	window  time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewLoginLimiter(counter RateCounter, limit int, window time.Duration, logger *slog.Logger) *LoginLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginLimiter{
		counter: counter,
		limit:   int64(limit),
		window:  window,
		logger:  logger,
		now:     time.Now,
	}
}

// Allow records one attempt for client and reports whether it is within
// the limit.
func (l *LoginLimiter) Allow(ctx context.Context, client string) bool {
	if l == nil || l.counter == nil {
		return true
	}

	bucket := l.now().UTC().Truncate(l.window).Unix()
	key := "rate:admin-login:" + client + ":" + strconv.FormatInt(bucket, 10)

	count, err := incrWithTTL(ctx, l.counter, key, l.window)
	if err != nil {
		l.logger.Warn("login limiter unavailable, allowing attempt",
			slog.String("client", client),
			slog.String("error", err.Error()),
		)
		return true
	}
	return count <= l.limit
}

// incrWithTTL sets the expiry only on the first hit so the window does not
// slide with every attempt.
func incrWithTTL(ctx context.Context, c RateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := c.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = c.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}
