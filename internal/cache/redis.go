// Package cache keeps batch stats in Redis between reviews.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/lexibatch/internal/logging"
	"github.com/example/lexibatch/pkg/models"
)

// DefaultTTL bounds how stale a cached stats entry may get.
const DefaultTTL = 30 * time.Second

// RedisCache is a fail-open stats cache. Every Redis error is logged and
// reported as a miss.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache connects to redisURL (redis://host:port/db) and pings it.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, ttl, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logging.NewComponentLogger(logger, "cache")}
}

// StatsKey formats the key for one user's database stats.
func StatsKey(userID, databaseID int64) string {
	return fmt.Sprintf("stats:%d:%d", userID, databaseID)
}

func (c *RedisCache) GetStats(ctx context.Context, userID, databaseID int64) (*models.BatchStats, bool) {
	data, err := c.client.Get(ctx, StatsKey(userID, databaseID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("stats cache read failed", logging.Error(err))
		}
		return nil, false
	}
	var stats models.BatchStats
	if err := json.Unmarshal(data, &stats); err != nil {
		c.logger.Warn("stats cache entry corrupt", logging.Error(err))
		return nil, false
	}
	return &stats, true
}

func (c *RedisCache) SetStats(ctx context.Context, userID, databaseID int64, stats *models.BatchStats) {
	if stats == nil {
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, StatsKey(userID, databaseID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("stats cache write failed", logging.Error(err))
	}
}

func (c *RedisCache) InvalidateStats(ctx context.Context, userID, databaseID int64) {
	if err := c.client.Del(ctx, StatsKey(userID, databaseID)).Err(); err != nil {
		c.logger.Warn("stats cache invalidate failed", logging.Error(err))
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
