package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
	"github.com/tair/cosmetics-recommender/pkg/logger"
)

// CacheKeyPrefix namespaces every key this store writes.
const CacheKeyPrefix = "recommendation:catalog:"

// CachedProductStore memoizes store reads in Redis. Entries live for the
// configured TTL or until Invalidate runs on a catalog change. Redis
// failures are logged and the call goes to the store.
type CachedProductStore struct {
	next  domain.ProductStore
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedProductStore(next domain.ProductStore, redisClient *redis.Client, ttl time.Duration) *CachedProductStore {
	return &CachedProductStore{next: next, redis: redisClient, ttl: ttl}
}

func (s *CachedProductStore) List(ctx context.Context, params domain.ListParams) ([]domain.Product, error) {
	key := listCacheKey(params)

	var cached []domain.Product
	if s.load(ctx, key, &cached) {
		return cached, nil
	}

	products, err := s.next.List(ctx, params)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, products)
	return products, nil
}

func (s *CachedProductStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	key := fmt.Sprintf("%sproduct:%d", CacheKeyPrefix, id)

	var cached domain.Product
	if s.load(ctx, key, &cached) {
		return &cached, nil
	}

	product, err := s.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, product)
	return product, nil
}

// Invalidate drops every cached catalog read.
func (s *CachedProductStore) Invalidate(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}

	iter := s.redis.Scan(ctx, 0, CacheKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	if len(keys) > 0 {
		if err := s.redis.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
		logger.Info(ctx).Int("count", len(keys)).Msg("Catalog cache invalidated")
	}
	return nil
}

func (s *CachedProductStore) load(ctx context.Context, key string, out interface{}) bool {
	if s.redis == nil {
		return false
	}
	raw, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Discarding corrupt cache entry")
		return false
	}
	logger.Debug(ctx).Str("cache_key", key).Msg("Cache hit")
	return true
}

func (s *CachedProductStore) store(ctx context.Context, key string, value interface{}) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Cache write failed")
	}
}

func listCacheKey(params domain.ListParams) string {
	raw := fmt.Sprintf("%s|%s|%d|%d", params.Category, params.Query, params.Limit, params.Offset)
	hash := sha256.Sum256([]byte(raw))
	return CacheKeyPrefix + "list:" + hex.EncodeToString(hash[:])
}
