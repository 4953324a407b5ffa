// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// DefaultStatsTTL is how long cached stats payloads live. Stats are derived
// aggregates, so a short window of staleness is acceptable.
const DefaultStatsTTL = 60 * time.Second

const statsPrefix = "stats:"

// StatsCache caches JSON-serializable aggregate results in Valkey.
// All failures degrade to a cache miss; callers recompute from the database.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a stats cache with the given TTL.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

// Get loads a cached payload into dst. Returns false on miss or any error.
func (c *StatsCache) Get(ctx context.Context, key string, dst any) bool {
	payload, err := c.client.Get(ctx, statsPrefix+key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(payload, dst) == nil
}

// Set stores a payload under the key. Errors are ignored; the next reader
// recomputes.
func (c *StatsCache) Set(ctx context.Context, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.client.Set(ctx, statsPrefix+key, payload, c.ttl)
}

// Invalidate drops the cached payloads for the given keys. Called after any
// mutating catalog or taxonomy operation.
func (c *StatsCache) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		c.client.Del(ctx, statsPrefix+key)
	}
}
