package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore implements Store on a shared Redis instance so multiple gate
// replicas enforce one budget. Window expiry is delegated to PEXPIRE, which
// makes Sweep a no-op.
type redisStore struct {
	client redis.Cmdable
	closer func() error
}

// NewRedisStore wraps a pre-configured client. Cmdable keeps it compatible
// with cluster and sentinel clients.
func NewRedisStore(client redis.Cmdable) Store {
	s := &redisStore{client: client}
	if c, ok := client.(*redis.Client); ok {
		s.closer = c.Close
	}
	return s
}

func (s *redisStore) Take(ctx context.Context, key string, max int, window time.Duration) (bool, int, time.Time, error) {
	rkey := "gate:window:" + key

	count, err := s.client.Incr(ctx, rkey).Result()
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("incr %s: %w", rkey, err)
	}
	if count == 1 {
		if err := s.client.PExpire(ctx, rkey, window).Err(); err != nil {
			return false, 0, time.Time{}, fmt.Errorf("pexpire %s: %w", rkey, err)
		}
	}
	if count > int64(max) {
		// Undo the increment so the stored count reflects only admitted
		// requests, matching the in-memory semantics.
		if err := s.client.Decr(ctx, rkey).Err(); err != nil {
			return false, 0, time.Time{}, fmt.Errorf("decr %s: %w", rkey, err)
		}
		resetAt, err := s.resetAt(ctx, rkey, window)
		if err != nil {
			return false, 0, time.Time{}, err
		}
		return false, max, resetAt, nil
	}

	resetAt, err := s.resetAt(ctx, rkey, window)
	if err != nil {
		return false, 0, time.Time{}, err
	}
	return true, int(count), resetAt, nil
}

func (s *redisStore) resetAt(ctx context.Context, rkey string, window time.Duration) (time.Time, error) {
	ttl, err := s.client.PTTL(ctx, rkey).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("pttl %s: %w", rkey, err)
	}
	if ttl < 0 {
		// Key exists without expiry (e.g. PEXPIRE raced a restart); treat
		// the full window as remaining.
		ttl = window
	}
	return time.Now().Add(ttl), nil
}

func (s *redisStore) Sweep(context.Context) int { return 0 }

func (s *redisStore) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}
