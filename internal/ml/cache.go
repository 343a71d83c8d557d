package ml

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fibrotrack-server/internal/domain"
)

// CachedPredictor wraps a RiskPredictor with a two-tier prediction cache:
// an in-process LRU for hot feature vectors and an optional shared Redis
// tier. The same feature vector always maps to the same prediction, so
// cached results never go stale within their TTL.
type CachedPredictor struct {
	inner       domain.RiskPredictor
	memoryCache *lru.Cache // Tier 1: in-memory LRU (hot data)
	redis       *redis.Client
	defaultTTL  time.Duration
	logger      *logrus.Logger
}

// cachedPrediction is the Redis-serialized cache entry.
type cachedPrediction struct {
	Prediction *domain.RiskPrediction `json:"prediction"`
	CachedAt   time.Time              `json:"cached_at"`
	ExpiresAt  time.Time              `json:"expires_at"`
}

// NewCachedPredictor wraps a predictor with caching. The Redis tier is
// optional; pass an empty RedisURL for memory-only caching.
func NewCachedPredictor(inner domain.RiskPredictor, config domain.CacheConfig, logger *logrus.Logger) (*CachedPredictor, error) {
	memoryItems := config.MemoryItems
	if memoryItems <= 0 {
		memoryItems = 1000
	}
	memoryCache, err := lru.New(memoryItems)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}

	c := &CachedPredictor{
		inner:       inner,
		memoryCache: memoryCache,
		defaultTTL:  config.DefaultTTL,
		logger:      logger,
	}
	if c.defaultTTL <= 0 {
		c.defaultTTL = time.Hour
	}

	if config.RedisURL != "" {
		opts, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		opts.PoolSize = config.PoolSize
		opts.PoolTimeout = config.PoolTimeout
		opts.MaxRetries = config.MaxRetries

		client := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.redis = client
	}

	return c, nil
}

// Predict returns a cached prediction when available, otherwise delegates
// to the wrapped predictor and caches the result. Only successes are
// cached; failures always reach the caller.
func (c *CachedPredictor) Predict(ctx context.Context, features domain.RiskFeatures) (*domain.RiskPrediction, error) {
	key := featureKey(features)

	if cached, ok := c.memoryCache.Get(key); ok {
		return cached.(*domain.RiskPrediction), nil
	}

	if prediction := c.fromRedis(ctx, key); prediction != nil {
		c.memoryCache.Add(key, prediction)
		return prediction, nil
	}

	prediction, err := c.inner.Predict(ctx, features)
	if err != nil {
		return nil, err
	}

	c.memoryCache.Add(key, prediction)
	c.toRedis(ctx, key, prediction)
	return prediction, nil
}

// fromRedis reads the shared tier, dropping corrupt or expired entries.
func (c *CachedPredictor) fromRedis(ctx context.Context, key string) *domain.RiskPrediction {
	if c.redis == nil {
		return nil
	}

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		c.logger.WithError(err).Debug("Prediction cache read failed")
		return nil
	}

	var cached cachedPrediction
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		c.redis.Del(ctx, key)
		return nil
	}
	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil
	}
	return cached.Prediction
}

// toRedis writes the shared tier; failures only log.
func (c *CachedPredictor) toRedis(ctx context.Context, key string, prediction *domain.RiskPrediction) {
	if c.redis == nil {
		return
	}

	cached := cachedPrediction{
		Prediction: prediction,
		CachedAt:   time.Now(),
		ExpiresAt:  time.Now().Add(c.defaultTTL),
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.defaultTTL).Err(); err != nil {
		c.logger.WithError(err).Debug("Prediction cache write failed")
	}
}

// Close releases the Redis connection.
func (c *CachedPredictor) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

// featureKey derives a stable cache key from the feature vector.
func featureKey(features domain.RiskFeatures) string {
	raw, _ := json.Marshal(features.Vector())
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("risk:prediction:%x", sum)
}
