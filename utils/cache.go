// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"travelease/config"
)

var (
	// CacheClient is the generic cache client (latest-booking slots).
	CacheClient *redis.Client
	// AuthCacheClient is the dedicated client for authorization caching.
	AuthCacheClient *redis.Client
	// SessionCacheClient stores booking sessions.
	SessionCacheClient *redis.Client
)

// NewRedisClient connects to the configured Redis server on db and pings it.
func NewRedisClient(db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis db %d: %w", db, err)
	}
	return client, nil
}

// InitRedis initializes the cache, auth and session clients.
func InitRedis() error {
	var err error
	if CacheClient, err = NewRedisClient(config.AppConfig.RedisCacheDB); err != nil {
		return fmt.Errorf("failed to connect to Redis (Cache): %w", err)
	}
	if AuthCacheClient, err = NewRedisClient(config.AppConfig.RedisAuthDB); err != nil {
		return fmt.Errorf("failed to connect to Redis (Auth Cache): %w", err)
	}
	if SessionCacheClient, err = NewRedisClient(config.AppConfig.RedisSessionDB); err != nil {
		return fmt.Errorf("failed to connect to Redis (Session Cache): %w", err)
	}
	return nil
}

// RedisClients returns the initialized clients, for health checks and shutdown.
func RedisClients() []*redis.Client {
	var out []*redis.Client
	for _, c := range []*redis.Client{CacheClient, AuthCacheClient, SessionCacheClient} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// CloseRedis closes every initialized client.
func CloseRedis() {
	for _, c := range RedisClients() {
		_ = c.Close()
	}
}
