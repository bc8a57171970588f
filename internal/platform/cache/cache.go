// Package cache provides a Redis backed, per-company versioned JSON cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	versionPrefix = "ledger:version:"
	bumpChannel   = "ledger.bump"
)

// Cache wraps Redis based caching with versioning controls. A nil Cache or one
// without a client calls loaders directly.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New instantiates the cache helper.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the company's cache version, initialising it when missing.
func (c *Cache) Version(ctx context.Context, companyID string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	key := versionPrefix + companyID
	ver, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		// SETNX so two first readers agree on the initial version.
		if err := c.client.SetNX(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, key).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes a cache key scoped to the company's current version.
func (c *Cache) BuildKey(ctx context.Context, companyID string, parts ...string) (string, error) {
	joined := strings.Join(append([]string{"ledger", companyID}, parts...), ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx, companyID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// FetchJSON loads a cached value into dest or populates it using the loader.
// Loader errors are returned as-is and nothing is cached. Redis failures only
// cost the cache hit: the loader result is still returned.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c != nil && c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil && json.Unmarshal(payload, dest) == nil {
			return nil
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c != nil && c.client != nil {
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	}
	return json.Unmarshal(raw, dest)
}

// Invalidate bumps the company's version so existing keys are never read
// again and announces the new version to other processes.
func (c *Cache) Invalidate(ctx context.Context, companyID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, versionPrefix+companyID).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, companyID+"="+strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation follows version bumps published by other processes
// until ctx is done. Versions only move forward.
func (c *Cache) ListenForInvalidation(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, bumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				companyID, raw, found := strings.Cut(msg.Payload, "=")
				if !found {
					continue
				}
				ver, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					continue
				}
				current, err := c.Version(ctx, companyID)
				if err == nil && ver > current {
					_ = c.client.Set(ctx, versionPrefix+companyID, ver, 0).Err()
				}
			}
		}
	}()
	return nil
}
