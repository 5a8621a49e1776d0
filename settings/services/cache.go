package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"homestay-registration-backend/applications/fees"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/documents/validators"
	"homestay-registration-backend/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cachePrefix = "settings"

// CachedProvider is a redis read-through cache in front of another Provider.
// Redis failures fall back to the wrapped provider.
type CachedProvider struct {
	inner  Provider
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedProvider(inner Provider, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedProvider{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *CachedProvider) UploadPolicy(ctx context.Context) (validators.UploadPolicy, error) {
	return readThrough(ctx, c, models.SettingUploadPolicy, c.inner.UploadPolicy)
}

func (c *CachedProvider) CategoryRateBands(ctx context.Context) (fees.RateBands, error) {
	return readThrough(ctx, c, models.SettingCategoryRateBands, c.inner.CategoryRateBands)
}

func (c *CachedProvider) FeeSchedule(ctx context.Context) (fees.FeeSchedule, error) {
	return readThrough(ctx, c, models.SettingFeeSchedule, c.inner.FeeSchedule)
}

func (c *CachedProvider) RoomRules(ctx context.Context) (fees.RoomRules, error) {
	return readThrough(ctx, c, models.SettingRoomRules, c.inner.RoomRules)
}

func (c *CachedProvider) DASendBackEnabled(ctx context.Context) (bool, error) {
	return readThrough(ctx, c, models.SettingDASendBackEnabled, c.inner.DASendBackEnabled)
}

func (c *CachedProvider) LegacyForwardAllowed(ctx context.Context) (bool, error) {
	return readThrough(ctx, c, models.SettingLegacyForwardAllowed, c.inner.LegacyForwardAllowed)
}

// Invalidate drops one cached key.
func (c *CachedProvider) Invalidate(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, cacheKey(key)).Err()
}

// InvalidateAll drops every cached setting in the background.
func (c *CachedProvider) InvalidateAll() {
	utils.InvalidateCacheAsync(c.rdb, cachePrefix, c.logger)
}

func cacheKey(key string) string {
	return cachePrefix + ":" + key
}

func readThrough[T any](ctx context.Context, c *CachedProvider, key string, load func(context.Context) (T, error)) (T, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(key)).Bytes()
	switch {
	case err == nil:
		var value T
		if jsonErr := json.Unmarshal(raw, &value); jsonErr == nil {
			return value, nil
		}
		c.logger.Warn("Discarding unreadable cached setting", zap.String("settingKey", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("Settings cache read failed", zap.String("settingKey", key), zap.Error(err))
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if encoded, jsonErr := json.Marshal(value); jsonErr == nil {
		if setErr := c.rdb.Set(ctx, cacheKey(key), encoded, c.ttl).Err(); setErr != nil {
			c.logger.Warn("Settings cache write failed", zap.String("settingKey", key), zap.Error(setErr))
		}
	}
	return value, nil
}
