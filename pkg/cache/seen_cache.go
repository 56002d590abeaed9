package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	// SeenTTL bounds how long a reported event id is remembered.
	SeenTTL = 24 * time.Hour

	seenKeyPrefix = "event:seen"
)

// SeenCache is the relay's set of already-reported event ids.
// Key format: "event:seen:{eventID}"
type SeenCache struct {
	client *RedisClient
	ttl    time.Duration
}

// NewSeenCache creates a SeenCache backed by the given RedisClient.
func NewSeenCache(r *RedisClient) *SeenCache {
	return &SeenCache{client: r, ttl: SeenTTL}
}

// MarkSeen claims id. It returns true for the first claim within the TTL and
// false if id was already claimed.
func (c *SeenCache) MarkSeen(ctx context.Context, id string) (bool, error) {
	first, err := c.client.Client().SetNX(ctx, c.key(id), time.Now().UTC().Format(time.RFC3339), c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("seen cache mark %s: %w", id, err)
	}
	return first, nil
}

// Forget releases a claim, so that a report that failed to persist can be retried.
func (c *SeenCache) Forget(ctx context.Context, id string) error {
	if err := c.client.Client().Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("seen cache forget %s: %w", id, err)
	}
	return nil
}

func (c *SeenCache) key(id string) string {
	return seenKeyPrefix + ":" + id
}
