package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sentrygate/securevault/config"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// RedisEnabled reports whether a Redis host is configured. When it is not,
// components fall back to in-process alternatives.
func RedisEnabled() bool {
	return config.Get().RedisHost != ""
}

// GetRedis returns a singleton Redis client based on loaded config, or nil
// when Redis is not configured.
func GetRedis() *redis.Client {
	if !RedisEnabled() {
		return nil
	}
	redisOnce.Do(func() {
		cfg := config.Get()
		redisClient = redis.NewClient(&redis.Options{
			Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		// Ping to surface connectivity problems early; errors are tolerated so
		// fallback paths still work.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = redisClient.Ping(ctx).Err()
	})
	return redisClient
}
