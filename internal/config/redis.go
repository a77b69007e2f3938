package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// SetupRedis connects to redis and verifies the connection with a PING.
// The caller owns the returned client and must Close it.
func SetupRedis(ctx context.Context, cfg *RedisConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	if cfg == nil {
		return nil, errors.New("redis config is nil")
	}
	if logger == nil {
		return nil, errors.New("logger is nil")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Addr},
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("redis connected",
		slog.String("addr", cfg.Addr),
		slog.Int("db", cfg.DB),
		slog.String("channel", cfg.Channel),
	)
	return client, nil
}
