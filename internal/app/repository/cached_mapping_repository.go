package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sifan077/shorty/internal/app/model"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "shorty:url:"

// Cache is the part of *redis.Client the cached repository uses.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// cachedMappingRepository keeps long URLs in Redis in front of the store.
// Mappings never change, so entries only expire to bound memory.
type cachedMappingRepository struct {
	MappingRepository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedMappingRepository wraps next with a Redis cache-aside layer.
// Redis failures are logged and the store answers instead.
func NewCachedMappingRepository(next MappingRepository, cache Cache, ttl time.Duration, logger *zap.Logger) MappingRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedMappingRepository{
		MappingRepository: next,
		cache:             cache,
		ttl:               ttl,
		logger:            logger,
	}
}

func (r *cachedMappingRepository) Insert(ctx context.Context, longURL, shortCode string) (*model.URLMapping, error) {
	m, err := r.MappingRepository.Insert(ctx, longURL, shortCode)
	if err != nil {
		return nil, err
	}
	r.store(ctx, m.ShortCode, m.LongURL)
	return m, nil
}

func (r *cachedMappingRepository) Lookup(ctx context.Context, shortCode string) (string, error) {
	cached, err := r.cache.Get(ctx, cacheKey(shortCode)).Result()
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("cache read failed", zap.String("code", shortCode), zap.Error(err))
	}

	longURL, err := r.MappingRepository.Lookup(ctx, shortCode)
	if err != nil {
		return "", err
	}
	r.store(ctx, shortCode, longURL)
	return longURL, nil
}

func (r *cachedMappingRepository) store(ctx context.Context, shortCode, longURL string) {
	if err := r.cache.Set(ctx, cacheKey(shortCode), longURL, r.ttl).Err(); err != nil {
		r.logger.Warn("cache write failed", zap.String("code", shortCode), zap.Error(err))
	}
}

func cacheKey(shortCode string) string {
	return cacheKeyPrefix + shortCode
}
