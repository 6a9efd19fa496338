// Package redis caches the latest brand-health rollups so report reads skip
// the database on the hot path.  The cache is strictly derivative: every
// entry can be rebuilt from the prediction store, so eviction and TTL expiry
// are harmless.
package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/turtacn/BrandPulse-Analytics/internal/config"
	"github.com/turtacn/BrandPulse-Analytics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
)

// ErrCacheMiss marks a key with no cached value.
var ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "cache miss")

// Client wraps the redis connection with config-driven setup.
type Client struct {
	rdb  *goredis.Client
	log  logging.Logger
	once sync.Once
}

// NewClient connects and verifies the server with a ping.
func NewClient(ctx context.Context, cfg config.RedisConfig, log logging.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrap(err, errors.ErrCodeCache, "redis unreachable")
	}

	log.Info("connected to redis", logging.String("addr", cfg.Addr))
	return &Client{rdb: rdb, log: log}, nil
}

// Close releases the connection pool.  Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() { err = c.rdb.Close() })
	return err
}

// MetricCache stores serialized values under a key prefix with a default
// TTL.
type MetricCache struct {
	client *Client
	prefix string
	ttl    time.Duration
	log    logging.Logger
}

// NewMetricCache builds the cache layer from config.
func NewMetricCache(client *Client, cfg config.RedisConfig, log logging.Logger) *MetricCache {
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &MetricCache{
		client: client,
		prefix: cfg.KeyPrefix,
		ttl:    ttl,
		log:    log.Named("cache"),
	}
}

func (c *MetricCache) key(parts ...string) string {
	key := c.prefix
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += p
	}
	return key
}

// Put serializes value under the composed key with the default TTL.
func (c *MetricCache) Put(ctx context.Context, value interface{}, keyParts ...string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal cache value")
	}
	key := c.key(keyParts...)
	if err := c.client.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCache, "write cache entry")
	}
	c.log.Debug("cache entry written", logging.String("key", key))
	return nil
}

// Get deserializes the value under the composed key into dest.  A missing
// key returns ErrCacheMiss.
func (c *MetricCache) Get(ctx context.Context, dest interface{}, keyParts ...string) error {
	key := c.key(keyParts...)
	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCache, "read cache entry")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "unmarshal cache value")
	}
	return nil
}

// Invalidate removes the entries under the composed keys.  Unknown keys are
// not an error.
func (c *MetricCache) Invalidate(ctx context.Context, keys ...[]string) error {
	full := make([]string, len(keys))
	for i, parts := range keys {
		full[i] = c.key(parts...)
	}
	if len(full) == 0 {
		return nil
	}
	if err := c.client.rdb.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCache, "invalidate cache entries")
	}
	return nil
}
