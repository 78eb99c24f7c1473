// Package cache provides an optional Redis cache for computed free
// slots. A nil client disables caching entirely.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ssavin/vetsystem/internal/schedule"
)

// SlotCache caches FindFreeSlots results per (doctor, date, duration).
type SlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSlotCache wraps a Redis client. Either a nil client or a
// non-positive TTL yields a no-op cache.
func NewSlotCache(client *redis.Client, ttl time.Duration) *SlotCache {
	return &SlotCache{client: client, ttl: ttl}
}

func slotKey(doctorID int64, date time.Time, duration int) string {
	return fmt.Sprintf("slots:%d:%s:%d", doctorID, date.Format("2006-01-02"), duration)
}

// Get returns the cached windows for the key, or false on any miss.
func (c *SlotCache) Get(ctx context.Context, doctorID int64, date time.Time, duration int) ([]schedule.Window, bool) {
	if c.client == nil || c.ttl <= 0 {
		return nil, false
	}
	val, err := c.client.Get(ctx, slotKey(doctorID, date, duration)).Result()
	if err != nil {
		return nil, false
	}
	var windows []schedule.Window
	if err := json.Unmarshal([]byte(val), &windows); err != nil {
		return nil, false
	}
	return windows, true
}

// Set stores the windows for the key. Failures are ignored; the cache is
// best effort.
func (c *SlotCache) Set(ctx context.Context, doctorID int64, date time.Time, duration int, windows []schedule.Window) {
	if c.client == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(windows)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, slotKey(doctorID, date, duration), data, c.ttl).Err()
}

// Invalidate drops every cached duration for the doctor's day. Called on
// any booking write for that doctor and date.
func (c *SlotCache) Invalidate(ctx context.Context, doctorID int64, date time.Time) {
	if c.client == nil || c.ttl <= 0 {
		return
	}
	pattern := fmt.Sprintf("slots:%d:%s:*", doctorID, date.Format("2006-01-02"))
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}
