// Package cache keeps raw one-call payloads in Redis so repeated lookups
// for the same coordinates skip the provider until the entry expires.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"github.com/vzahanych/weather-snapshot/internal/config"
	"github.com/vzahanych/weather-snapshot/internal/onecall"
	"github.com/vzahanych/weather-snapshot/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const cacheType = "onecall"

// Client is the subset of the Redis API the cache needs.
type Client interface {
	Get(ctx context.Context, key string) *redisv9.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redisv9.StatusCmd
}

// MetricsRecorder interface for recording metrics
type MetricsRecorder interface {
	RecordCacheHit(ctx context.Context, cacheType string)
	RecordCacheMiss(ctx context.Context, cacheType string)
}

// CachedProvider wraps a provider with a TTL cache keyed by coordinates.
// Cache errors are logged and treated as misses.
type CachedProvider struct {
	provider onecall.Provider
	client   Client
	ttl      time.Duration
	prefix   string
	logger   *zap.Logger
	tele     *telemetry.Telemetry
	metrics  MetricsRecorder

	hits   atomic.Int64
	misses atomic.Int64
}

func NewCachedProvider(provider onecall.Provider, client Client, ttl time.Duration, prefix string, logger *zap.Logger, tele *telemetry.Telemetry) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		client:   client,
		ttl:      ttl,
		prefix:   prefix,
		logger:   logger,
		tele:     tele,
	}
}

// NewRedisClient connects to the configured Redis instance.
func NewRedisClient(cfg config.RedisConfig) *redisv9.Client {
	return redisv9.NewClient(&redisv9.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// SetMetricsRecorder sets the metrics recorder for the cache
func (c *CachedProvider) SetMetricsRecorder(metrics MetricsRecorder) {
	c.metrics = metrics
}

func (c *CachedProvider) Name() string {
	return c.provider.Name() + " [Cached]"
}

func (c *CachedProvider) FetchOneCall(ctx context.Context, coords onecall.Coordinates) (*onecall.Response, error) {
	ctx, span := c.tele.StartSpan(ctx, "cache.FetchOneCall",
		attribute.Float64("lat", coords.Lat),
		attribute.Float64("lon", coords.Lon),
	)
	defer span.End()

	key := c.prefix + coords.Key()

	if cached, ok := c.get(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		c.hits.Add(1)
		if c.metrics != nil {
			c.metrics.RecordCacheHit(ctx, cacheType)
		}
		c.logger.Debug("Cache hit", zap.String("cache_key", key))
		return cached, nil
	}

	span.SetAttributes(attribute.Bool("cache_hit", false))
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.RecordCacheMiss(ctx, cacheType)
	}

	resp, err := c.provider.FetchOneCall(ctx, coords)
	if err != nil {
		return nil, err
	}

	c.set(ctx, key, resp)
	return resp, nil
}

func (c *CachedProvider) get(ctx context.Context, key string) (*onecall.Response, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redisv9.Nil) {
			c.logger.Warn("Cache read failed", zap.String("cache_key", key), zap.Error(err))
		}
		return nil, false
	}

	var resp onecall.Response
	if err := json.Unmarshal(val, &resp); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.String("cache_key", key), zap.Error(err))
		return nil, false
	}
	return &resp, true
}

func (c *CachedProvider) set(ctx context.Context, key string, resp *onecall.Response) {
	b, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warn("Cache encode failed", zap.String("cache_key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", zap.String("cache_key", key), zap.Error(err))
	}
}

func (c *CachedProvider) GetCacheStats() map[string]interface{} {
	return map[string]interface{}{
		"cache_hits":   c.hits.Load(),
		"cache_misses": c.misses.Load(),
		"cache_ttl":    c.ttl.String(),
		"provider":     c.provider.Name(),
	}
}

var _ onecall.Provider = (*CachedProvider)(nil)
