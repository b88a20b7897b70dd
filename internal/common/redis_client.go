package common

import (
	"context"
	"fmt"
	"time"

	"grindhouse/scoreboard/internal/logging"

	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewRedisClient(opts RedisOptions) *redis.Client {
	addr := fmt.Sprintf("%s:%s", opts.Host, opts.Port)
	logging.Info("Initializing Redis client", "addr", addr, "db", opts.DB)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logging.Warn("Failed to ping Redis, pool will keep retrying", "error", err.Error())
		return client
	}

	logging.Info("Connected to Redis", "addr", addr)
	return client
}
