package cache

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PayFox/internal/pkg/config"
)

// Database numbers shared on one Redis instance.
const (
	DBQueue     = 0
	DBRateLimit = 1
)

// SetupCache creates the Redis client used by the job queue. A failed ping
// is only logged; the client reconnects on demand.
func SetupCache(cfg config.CacheConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       DBQueue,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Warnf("[Cache] Could not connect to redis at %s: %v", cfg.Addr(), err)
	} else {
		log.Infof("[Cache] Successfully connected to redis: %s", pong)
	}
	return client
}
