package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InvalidateCache deletes every key under "<resourceType>:".
func InvalidateCache(ctx context.Context, rdb *redis.Client, resourceType string) error {
	// SCAN instead of KEYS so large keyspaces do not block redis
	pattern := fmt.Sprintf("%s:*", resourceType)
	iter := rdb.Scan(ctx, 0, pattern, 0).Iterator()

	for iter.Next(ctx) {
		key := iter.Val()
		if err := rdb.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", key, err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("error during SCAN iteration: %w", err)
	}
	return nil
}

// InvalidateCacheAsync runs InvalidateCache in the background and only logs failures.
func InvalidateCacheAsync(rdb *redis.Client, resourceType string, logger *zap.Logger) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := InvalidateCache(ctx, rdb, resourceType); err != nil {
			logger.Error("Cache invalidation failed",
				zap.String("resourceType", resourceType),
				zap.Error(err))
		}
	}()
}
