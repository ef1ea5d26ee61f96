package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnreadCache is a read-through Redis cache for the notification unread
// count badge. A nil client disables caching; every lookup then misses.
type UnreadCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewUnreadCache creates an unread count cache. client may be nil.
func NewUnreadCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *UnreadCache {
	return &UnreadCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func key(userID string) string {
	return "notifications:unread:" + userID
}

// Get returns the cached unread count for the user. The second return value
// is false on a miss or when caching is disabled. Redis errors degrade to a
// miss so the caller falls back to the database.
func (c *UnreadCache) Get(ctx context.Context, userID string) (int, bool) {
	if c.client == nil {
		return 0, false
	}

	val, err := c.client.Get(ctx, key(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "unread cache read failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		return 0, false
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}

	return count, true
}

// Set stores the unread count with the configured TTL. Best effort.
func (c *UnreadCache) Set(ctx context.Context, userID string, count int) {
	if c.client == nil {
		return
	}

	if err := c.client.Set(ctx, key(userID), fmt.Sprintf("%d", count), c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "unread cache write failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// Invalidate drops the cached count for the user. Called on every write that
// can change the unread set.
func (c *UnreadCache) Invalidate(ctx context.Context, userID string) {
	if c.client == nil {
		return
	}

	if err := c.client.Del(ctx, key(userID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "unread cache invalidation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
