package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLs per cached shape. Inventory counts drift with every upload so they get
// the shortest window; assembled papers are immutable and can live longer.
var (
	InventoryTTL = 2 * time.Minute
	PaperTTL     = 30 * time.Minute
	QuestionTTL  = 15 * time.Minute
	ReportTTL    = 5 * time.Minute
)

// Helper wraps the Redis client with JSON encode/decode and a nil-safe mode.
// With no client configured every call degrades to a cache miss, so the
// service runs identically without Redis, just slower.
type Helper struct {
	client *redis.Client
	logger *slog.Logger
	prefix string
}

func NewHelper(client *redis.Client, logger *slog.Logger) *Helper {
	return &Helper{
		client: client,
		logger: logger,
		prefix: "exam-service",
	}
}

// Enabled reports whether a Redis client is wired.
func (h *Helper) Enabled() bool {
	return h != nil && h.client != nil
}

func (h *Helper) key(parts ...any) string {
	k := h.prefix
	for _, p := range parts {
		k += fmt.Sprintf(":%v", p)
	}
	return k
}

// Get loads and decodes a cached value into dest. Returns false on miss,
// decode failure, or when caching is disabled.
func (h *Helper) Get(ctx context.Context, dest any, keyParts ...any) bool {
	if !h.Enabled() {
		return false
	}
	key := h.key(keyParts...)
	raw, err := h.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			h.logger.Warn("cache get failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		h.logger.Warn("cache decode failed, dropping entry", "key", key, "error", err)
		h.client.Del(ctx, key)
		return false
	}
	return true
}

// Set encodes and stores a value. Failures are logged, never propagated.
func (h *Helper) Set(ctx context.Context, value any, ttl time.Duration, keyParts ...any) {
	if !h.Enabled() {
		return
	}
	key := h.key(keyParts...)
	raw, err := json.Marshal(value)
	if err != nil {
		h.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := h.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		h.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// Delete removes specific keys.
func (h *Helper) Delete(ctx context.Context, keyParts ...any) {
	if !h.Enabled() {
		return
	}
	key := h.key(keyParts...)
	if err := h.client.Del(ctx, key).Err(); err != nil {
		h.logger.Warn("cache delete failed", "key", key, "error", err)
	}
}

// DeletePattern removes every key matching the glob pattern under the prefix.
// Uses SCAN so large keyspaces do not block Redis.
func (h *Helper) DeletePattern(ctx context.Context, pattern string) {
	if !h.Enabled() {
		return
	}
	full := h.prefix + ":" + pattern
	iter := h.client.Scan(ctx, 0, full, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		h.logger.Warn("cache scan failed", "pattern", full, "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := h.client.Del(ctx, keys...).Err(); err != nil {
		h.logger.Warn("cache pattern delete failed", "pattern", full, "error", err)
	}
}
