package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// incrWindowScript increments the counter and starts the window on the
// first hit, atomically. A lapsed window is a missing key, so the next
// attempt starts a fresh entry.
var incrWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RedisRateLimiter shares counters across instances through Redis.
type RedisRateLimiter struct {
	client redis.UniversalClient
	prefix string
}

var _ RateLimiter = (*RedisRateLimiter)(nil)

// NewRedisRateLimiter returns a limiter storing counters under prefix.
func NewRedisRateLimiter(client redis.UniversalClient, prefix string) *RedisRateLimiter {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisRateLimiter{
		client: client,
		prefix: prefix,
	}
}

// Allow implements RateLimiter.
func (r *RedisRateLimiter) Allow(ctx context.Context, identifier string, maxAttempts int, window time.Duration) (bool, error) {
	if window < time.Millisecond {
		window = time.Millisecond
	}

	count, err := incrWindowScript.Run(ctx, r.client, []string{r.key(identifier)}, window.Milliseconds()).Int64()
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "rate limiter increment failed")
	}

	return count <= int64(maxAttempts), nil
}

// Reset implements RateLimiter.
func (r *RedisRateLimiter) Reset(ctx context.Context, identifier string) error {
	if err := r.client.Del(ctx, r.key(identifier)).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "rate limiter reset failed")
	}
	return nil
}

func (r *RedisRateLimiter) key(identifier string) string {
	return r.prefix + identifier
}
