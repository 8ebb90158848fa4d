package quiz

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultGateTTL = 30 * time.Second

// RedisGrowthGate admits at most one growth generation per topic per TTL
// window, across every instance sharing the Redis.
type RedisGrowthGate struct {
	client *redis.Client
	ttl    time.Duration
}

var _ GrowthGate = (*RedisGrowthGate)(nil)

// NewRedisGrowthGate builds a gate over the given client. A non-positive ttl
// falls back to a short default window.
func NewRedisGrowthGate(client *redis.Client, ttl time.Duration) *RedisGrowthGate {
	if ttl <= 0 {
		ttl = defaultGateTTL
	}
	return &RedisGrowthGate{client: client, ttl: ttl}
}

func (g *RedisGrowthGate) key(topic string) string {
	return fmt.Sprintf("quiz:growth:%s", topic)
}

// TryAcquire reports whether this caller won the growth slot for the topic.
// The slot frees itself once the TTL lapses.
func (g *RedisGrowthGate) TryAcquire(ctx context.Context, topic string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(topic), 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire growth slot: %w", err)
	}
	return ok, nil
}
