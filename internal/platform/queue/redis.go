package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kids_math/internal/platform/logger"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

// ConnectRedis opens a client and verifies it with a ping.
func ConnectRedis(ctx context.Context, opts Options, log *logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	log.Info("Connected to Redis", "addr", opts.Addr)
	return rdb, nil
}

func CloseRedis(rdb *redis.Client, log *logger.Logger) {
	if rdb == nil {
		return
	}
	if err := rdb.Close(); err != nil {
		log.Warn("Closing redis failed", "error", err)
		return
	}
	log.Info("Redis connection closed")
}
