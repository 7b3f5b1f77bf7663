// Package cache keeps product lookups by code in Redis.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "catalog:code:"

// CodeCache caches lookups by derived product code. A nil *CodeCache, or one
// without a client, is a valid no-op cache so the API runs without Redis.
//
// It implements pairing.Invalidator: the pairing service reports every code a
// committed batch created, rewrote or deleted.
type CodeCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCodeCache(rdb *redis.Client, ttl time.Duration) *CodeCache {
	return &CodeCache{rdb: rdb, ttl: ttl}
}

func Key(code string) string { return keyPrefix + code }

func (c *CodeCache) enabled() bool { return c != nil && c.rdb != nil }

// Get decodes the cached entry for code into dst. Misses and decode failures
// both report false.
func (c *CodeCache) Get(ctx context.Context, code string, dst any) bool {
	if !c.enabled() {
		return false
	}
	b, err := c.rdb.Get(ctx, Key(code)).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(b, dst) == nil
}

// Set stores v under code. Best effort, errors are only logged.
func (c *CodeCache) Set(ctx context.Context, code string, v any) {
	if !c.enabled() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, Key(code), b, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("code cache: set failed")
	}
}

// Invalidate drops the entries of codes.
func (c *CodeCache) Invalidate(ctx context.Context, codes ...string) {
	if !c.enabled() || len(codes) == 0 {
		return
	}
	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = Key(code)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("codes", codes).Msg("code cache: invalidation failed")
	}
}
