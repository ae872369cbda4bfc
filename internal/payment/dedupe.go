package payment

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupeStore remembers which event ids have already been forwarded.
// FirstDelivery reports true exactly once per id within the retention TTL.
// Release forgets an id again so a failed forward can be retried on the
// processor's next delivery.
type DedupeStore interface {
	FirstDelivery(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type RedisDedupe struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDedupe(rdb *redis.Client, ttl time.Duration) *RedisDedupe {
	return &RedisDedupe{rdb: rdb, ttl: ttl}
}

func (s *RedisDedupe) FirstDelivery(ctx context.Context, eventID string) (bool, error) {
	return s.rdb.SetNX(ctx, "payevent:"+eventID, "1", s.ttl).Result()
}

func (s *RedisDedupe) Release(ctx context.Context, eventID string) error {
	return s.rdb.Del(ctx, "payevent:"+eventID).Err()
}
