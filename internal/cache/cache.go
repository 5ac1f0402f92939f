// Package cache is the read-through list cache in front of the store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"qms/shift-service/internal/metrics"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Redis struct {
	client redis.Cmdable
	prefix string
}

func NewRedis(client redis.Cmdable, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Open parses a redis:// URL, falling back to treating it as host:port.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, r.prefix+key)
	}
	return r.client.Del(ctx, prefixed...).Err()
}

// Nop never stores anything; every lookup is a miss.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Delete(context.Context, ...string) error                  { return nil }

// Remember returns the cached value for key, or loads, stores and returns
// it. Cache failures degrade to a direct load.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if raw, found, err := c.Get(ctx, key); err != nil {
		slog.WarnContext(ctx, "cache get", "key", key, "error", err)
	} else if found {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			metrics.CacheLookups.WithLabelValues(key, "hit").Inc()
			return cached, nil
		}
	}
	metrics.CacheLookups.WithLabelValues(key, "miss").Inc()

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return value, nil
	}
	if err := c.Set(ctx, key, raw, ttl); err != nil {
		slog.WarnContext(ctx, "cache set", "key", key, "error", err)
	}
	return value, nil
}

// Forget drops keys, logging instead of failing the write that triggered it.
func Forget(ctx context.Context, c Cache, keys ...string) {
	if err := c.Delete(ctx, keys...); err != nil {
		slog.WarnContext(ctx, "cache delete", "keys", keys, "error", err)
	}
}
