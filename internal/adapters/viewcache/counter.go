package viewcache

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"gedenkseiten/internal/domain"
)

const keyPrefix = "views:"

type redisCounter struct {
	client *redis.Client
}

// NewRedisCounter returns a ViewCounter that accumulates page views in Redis
// under "views:<memorial id>" keys.
func NewRedisCounter(client *redis.Client) domain.ViewCounter {
	return &redisCounter{client: client}
}

func (c *redisCounter) Record(ctx context.Context, memorialID string) error {
	if err := c.client.Incr(ctx, keyPrefix+memorialID).Err(); err != nil {
		return fmt.Errorf("incr view counter: %w", err)
	}
	return nil
}

// Drain returns all pending counts and deletes the keys. A counter bumped
// between GET and DEL is lost for that interval; view counts are best-effort.
func (c *redisCounter) Drain(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan view counters: %w", err)
		}
		for _, key := range keys {
			val, err := c.client.GetDel(ctx, key).Result()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				return counts, fmt.Errorf("getdel %s: %w", key, err)
			}
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				continue
			}
			counts[strings.TrimPrefix(key, keyPrefix)] += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return counts, nil
}
