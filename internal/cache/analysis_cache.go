package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/competiscan/competiscan-go/internal/models"
)

// CacheStats is a snapshot of the cache performance counters.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// AnalysisCache stores computed trend analyses and forecasts in Redis so
// repeated API calls within the TTL skip recomputation.
type AnalysisCache struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger *logrus.Logger

	mu     sync.RWMutex
	hits   int64
	misses int64
	sets   int64
}

// NewAnalysisCache creates a Redis-backed result cache.
func NewAnalysisCache(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *AnalysisCache {
	return &AnalysisCache{
		redis:  redisClient,
		ttl:    ttl,
		prefix: "analysis_cache:",
		logger: logger,
	}
}

// TrendKey builds the cache key for a trend operation and its parameters.
func TrendKey(operation string, segmentID *int64, days int) string {
	segment := "all"
	if segmentID != nil {
		segment = fmt.Sprintf("%d", *segmentID)
	}
	return fmt.Sprintf("trends:%s:%s:%d", operation, segment, days)
}

// ForecastKey builds the cache key for a forecast request.
func ForecastKey(segmentID *int64, horizonDays int) string {
	segment := "all"
	if segmentID != nil {
		segment = fmt.Sprintf("%d", *segmentID)
	}
	return fmt.Sprintf("forecast:%s:%d", segment, horizonDays)
}

// GetTrends retrieves a cached analysis list. A miss, expired key, or
// undecodable payload all report ok=false.
func (c *AnalysisCache) GetTrends(ctx context.Context, key string) ([]models.TrendAnalysis, bool) {
	data, err := c.redis.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		c.miss()
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Debug("Redis error reading cached trends")
		c.miss()
		return nil, false
	}

	var analyses []models.TrendAnalysis
	if err := json.Unmarshal([]byte(data), &analyses); err != nil {
		c.logger.WithError(err).Debug("Discarding undecodable cached trends")
		c.miss()
		return nil, false
	}

	c.hit()
	return analyses, true
}

// SetTrends caches an analysis list under the key.
func (c *AnalysisCache) SetTrends(ctx context.Context, key string, analyses []models.TrendAnalysis) {
	data, err := json.Marshal(analyses)
	if err != nil {
		c.logger.WithError(err).Debug("Failed to serialize trends for cache")
		return
	}
	if err := c.redis.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Debug("Redis error caching trends")
		return
	}
	c.set()
}

// GetForecast retrieves a cached forecast.
func (c *AnalysisCache) GetForecast(ctx context.Context, key string) (*models.MarketForecast, bool) {
	data, err := c.redis.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		c.miss()
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Debug("Redis error reading cached forecast")
		c.miss()
		return nil, false
	}

	var forecast models.MarketForecast
	if err := json.Unmarshal([]byte(data), &forecast); err != nil {
		c.logger.WithError(err).Debug("Discarding undecodable cached forecast")
		c.miss()
		return nil, false
	}

	c.hit()
	return &forecast, true
}

// SetForecast caches a forecast under the key.
func (c *AnalysisCache) SetForecast(ctx context.Context, key string, forecast *models.MarketForecast) {
	data, err := json.Marshal(forecast)
	if err != nil {
		c.logger.WithError(err).Debug("Failed to serialize forecast for cache")
		return
	}
	if err := c.redis.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Debug("Redis error caching forecast")
		return
	}
	c.set()
}

// Invalidate removes every cached result. Used after event backfills.
func (c *AnalysisCache) Invalidate(ctx context.Context) error {
	iter := c.redis.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cache keys: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the cache counters.
func (c *AnalysisCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Sets: c.sets}
}

func (c *AnalysisCache) hit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *AnalysisCache) miss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}

func (c *AnalysisCache) set() {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
}
