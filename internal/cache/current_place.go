package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oriolus/dwell/internal/models"
)

var ctx = context.Background()

// CurrentPlaceCache keeps the answer to "where is this user right now"
// in Redis so the hot endpoint skips the database. When Redis is not
// configured every method is a no-op and callers fall through to SQL.
type CurrentPlaceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCurrentPlaceCache connects to Redis. An empty addr disables caching.
func NewCurrentPlaceCache(addr, password string, ttl time.Duration) *CurrentPlaceCache {
	if addr == "" {
		return &CurrentPlaceCache{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("[Cache] redis unreachable at %s, caching disabled: %v", addr, err)
		client.Close()
		return &CurrentPlaceCache{}
	}

	return &CurrentPlaceCache{client: client, ttl: ttl}
}

// Enabled reports whether a Redis connection is live
func (c *CurrentPlaceCache) Enabled() bool {
	return c.client != nil
}

func currentKey(uid string) string {
	return "dwell:current:" + uid
}

// SetCurrent stores the user's current place entry
func (c *CurrentPlaceCache) SetCurrent(uid string, current *models.CurrentPlace) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to marshal current place: %w", err)
	}
	if err := c.client.Set(ctx, currentKey(uid), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache current place: %w", err)
	}
	return nil
}

// GetCurrent retrieves the cached current place, nil on miss
func (c *CurrentPlaceCache) GetCurrent(uid string) (*models.CurrentPlace, error) {
	if c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, currentKey(uid)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached current place: %w", err)
	}

	var current models.CurrentPlace
	if err := json.Unmarshal(data, &current); err != nil {
		return nil, fmt.Errorf("failed to unmarshal current place: %w", err)
	}
	current.FromCache = true
	return &current, nil
}

// Clear drops the cached entry, e.g. on exit or place deletion
func (c *CurrentPlaceCache) Clear(uid string) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, currentKey(uid)).Err(); err != nil {
		return fmt.Errorf("failed to clear current place: %w", err)
	}
	return nil
}

// Close releases the Redis connection
func (c *CurrentPlaceCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
