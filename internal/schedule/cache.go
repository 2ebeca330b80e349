package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AvailabilityCache keeps computed day grids in Redis for a short TTL.
// A momentarily stale read is acceptable: the conflict checker is the source
// of truth and rejects at booking time. All methods are nil-safe so callers
// can run without Redis.
type AvailabilityCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewAvailabilityCache creates a cache; a nil client disables it.
func NewAvailabilityCache(redisClient *redis.Client, ttl time.Duration) *AvailabilityCache {
	if redisClient == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &AvailabilityCache{redis: redisClient, ttl: ttl}
}

func (c *AvailabilityCache) key(professionalID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("availability:%s:%s", professionalID, day.Format("2006-01-02"))
}

// Get returns the cached slot list for a professional's day, if present.
func (c *AvailabilityCache) Get(ctx context.Context, professionalID uuid.UUID, day time.Time) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, c.key(professionalID, day)).Bytes()
	if err != nil {
		return nil, false
	}
	var slots []string
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, false
	}
	return slots, true
}

// Set stores the slot list. Failures are ignored; the cache is best-effort.
func (c *AvailabilityCache) Set(ctx context.Context, professionalID uuid.UUID, day time.Time, slots []string) {
	if c == nil {
		return
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return
	}
	c.redis.Set(ctx, c.key(professionalID, day), data, c.ttl)
}

// Invalidate drops the cached grid after a reservation or cancellation.
func (c *AvailabilityCache) Invalidate(ctx context.Context, professionalID uuid.UUID, day time.Time) {
	if c == nil {
		return
	}
	c.redis.Del(ctx, c.key(professionalID, day))
}
