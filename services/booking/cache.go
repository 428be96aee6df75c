package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"

	"travelease/models"
)

const latestBookingKeyPrefix = "latest_booking:"

// LatestBookingCache holds the most recent booking per user. A write replaces
// whatever was there.
type LatestBookingCache interface {
	Put(ctx context.Context, userID string, rec models.BookingRecord) error
	// Get returns nil without error when the slot is empty.
	Get(ctx context.Context, userID string) (*models.BookingRecord, error)
}

type RedisLatestBookingCache struct {
	client *redis.Client
}

func NewRedisLatestBookingCache(client *redis.Client) *RedisLatestBookingCache {
	return &RedisLatestBookingCache{client: client}
}

func (c *RedisLatestBookingCache) Put(ctx context.Context, userID string, rec models.BookingRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal latest booking: %w", err)
	}
	if err := c.client.Set(ctx, latestBookingKeyPrefix+userID, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to cache latest booking: %w", err)
	}
	return nil
}

func (c *RedisLatestBookingCache) Get(ctx context.Context, userID string) (*models.BookingRecord, error) {
	data, err := c.client.Get(ctx, latestBookingKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest booking: %w", err)
	}
	var rec models.BookingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse latest booking: %w", err)
	}
	return &rec, nil
}

type MemoryLatestBookingCache struct {
	mu      sync.RWMutex
	records map[string]models.BookingRecord
}

func NewMemoryLatestBookingCache() *MemoryLatestBookingCache {
	return &MemoryLatestBookingCache{records: make(map[string]models.BookingRecord)}
}

func (c *MemoryLatestBookingCache) Put(_ context.Context, userID string, rec models.BookingRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec.Seats = append([]string(nil), rec.Seats...)
	c.records[userID] = rec
	return nil
}

func (c *MemoryLatestBookingCache) Get(_ context.Context, userID string) (*models.BookingRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[userID]
	if !ok {
		return nil, nil
	}
	rec.Seats = append([]string(nil), rec.Seats...)
	return &rec, nil
}
