package database

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/lotto-mirror-backend/internal/platform/config"
	"github.com/google/logger"
	"github.com/redis/go-redis/v9"
)

// RDB 是一个全局的Redis客户端实例，保存交互式会话状态
var RDB *redis.Client

// InitRedis connects the global client and verifies it with a PING.
func InitRedis(cfg config.RedisConfig) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("cannot connect to redis at %s: %w", cfg.Address, err)
	}

	RDB = client
	logger.Infof("redis connected (%s)", cfg.Address)
	return nil
}

// CloseRedis closes the global client if it was opened.
func CloseRedis() error {
	if RDB == nil {
		return nil
	}
	return RDB.Close()
}
