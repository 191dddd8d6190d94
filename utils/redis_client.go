package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/blogapi/config"
)

// NewRedis returns a client for the configured Redis, or nil when Redis is
// disabled or unreachable so callers fall back to in-memory state.
func NewRedis(cfg config.AppConfig) *redis.Client {
	if !cfg.RedisEnabled {
		return nil
	}
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		Sugar.Warnf("redis unavailable at %s, using in-memory token blacklist: %v", rc.Options().Addr, err)
		_ = rc.Close()
		return nil
	}
	return rc
}
