package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"civicproof/internal/ratelimit/models"
)

// Store implements a fixed-window counter shared across replicas. Each window
// is a single Redis key holding the hit count, expiring at the window boundary.
type Store struct {
	client redis.Cmdable
	now    func() time.Time
}

func New(client redis.Cmdable) *Store {
	return &Store{client: client, now: time.Now}
}

// Hit increments the window counter and arms its expiry on the first hit.
func (s *Store) Hit(ctx context.Context, key string, limit models.Limit) (*models.Result, error) {
	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit pipeline: %w", err)
	}

	ttl := pttl.Val()
	if ttl < 0 {
		// New key, or a key that lost its expiry; either way the window starts now.
		if err := s.client.PExpire(ctx, key, limit.Window).Err(); err != nil {
			return nil, fmt.Errorf("rate limit expire: %w", err)
		}
		ttl = limit.Window
	}

	now := s.now()
	return models.NewResult(int(incr.Val()), limit, now.Add(ttl), now), nil
}
