package database

import (
	"context"
	"fmt"
	"time"

	"github.com/detour-app/detour-backend/internal/config"
	"github.com/detour-app/detour-backend/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
)

const redisPingAttempts = 3

// NewRedisClient connects to Redis, retrying the initial ping so the service
// can start alongside a Redis that is still booting.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	l := logger.Component("redis")
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	var err error
	for attempt := 1; attempt <= redisPingAttempts; attempt++ {
		if err = client.Ping(ctx).Err(); err == nil {
			l.Info().Str("addr", cfg.GetAddr()).Int("db", cfg.DB).Msg("Redis connection established")
			return client, nil
		}
		l.Warn().Err(err).Int("attempt", attempt).Msg("Redis ping failed")
		if attempt == redisPingAttempts {
			break
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", ctx.Err())
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}
	_ = client.Close()
	return nil, fmt.Errorf("failed to connect to redis: %w", err)
}
