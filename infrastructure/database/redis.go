package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"netvis/pkg/config"
)

// InitRedis 初始化 Redis 客户端连接
func InitRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("无法连接到 Redis (%s): %w", cfg.Addr, err)
	}

	logger.Info("成功连接到 Redis", zap.String("address", cfg.Addr), zap.Int("db", cfg.DB))
	return rdb, nil
}
