// Package cache provides a Redis-backed cache for evaluated flag sets. The
// cache sits in front of the store for read-heavy snapshot rebuilds; it is
// always optional and a miss simply falls through to the store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nubster/flaps/internal/flags"
)

// DefaultTTL is used when no TTL is configured.
const DefaultTTL = 60 * time.Second

// ErrCacheMiss is returned by Get when no entry exists for the key.
var ErrCacheMiss = errors.New("cache miss")

// Options configures a RedisFlagCache.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces all keys; defaults to "flaps".
	Prefix string
	// TTL bounds staleness; defaults to DefaultTTL.
	TTL time.Duration
}

// RedisFlagCache caches per-project, per-environment flag sets in Redis as
// JSON blobs with a TTL.
type RedisFlagCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a Redis flag cache. It does not dial eagerly; use Healthy to
// verify connectivity.
func New(opts Options) *RedisFlagCache {
	if opts.Prefix == "" {
		opts.Prefix = "flaps"
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisFlagCache{client: client, prefix: opts.Prefix, ttl: opts.TTL}
}

// flagsKey builds the cache key for a project+environment flag set.
func (c *RedisFlagCache) flagsKey(projectID uuid.UUID, environment string) string {
	return fmt.Sprintf("%s:flags:%s:%s", c.prefix, projectID, environment)
}

// projectPattern matches every environment's key for a project.
func (c *RedisFlagCache) projectPattern(projectID uuid.UUID) string {
	return fmt.Sprintf("%s:flags:%s:*", c.prefix, projectID)
}

// Get returns the cached flag set for a project and environment, or
// ErrCacheMiss when no entry exists.
func (c *RedisFlagCache) Get(ctx context.Context, projectID uuid.UUID, environment string) ([]flags.Flag, error) {
	data, err := c.client.Get(ctx, c.flagsKey(projectID, environment)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var cached []flags.Flag
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("decode cached flags: %w", err)
	}
	return cached, nil
}

// Set stores the flag set for a project and environment with the cache TTL.
func (c *RedisFlagCache) Set(ctx context.Context, projectID uuid.UUID, environment string, flagSet []flags.Flag) error {
	data, err := json.Marshal(flagSet)
	if err != nil {
		return fmt.Errorf("encode flags for cache: %w", err)
	}
	if err := c.client.Set(ctx, c.flagsKey(projectID, environment), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached flag set for one project environment.
func (c *RedisFlagCache) Invalidate(ctx context.Context, projectID uuid.UUID, environment string) error {
	if err := c.client.Del(ctx, c.flagsKey(projectID, environment)).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// InvalidateProject drops cached flag sets for every environment of a
// project. Uses SCAN rather than KEYS to stay safe on shared instances.
func (c *RedisFlagCache) InvalidateProject(ctx context.Context, projectID uuid.UUID) error {
	iter := c.client.Scan(ctx, 0, c.projectPattern(projectID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache invalidate project: %w", err)
	}
	return nil
}

// Healthy reports whether Redis responds to PING.
func (c *RedisFlagCache) Healthy(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

// Close releases the underlying connection pool.
func (c *RedisFlagCache) Close() error {
	return c.client.Close()
}
