package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client 为全局 Redis 连接，未配置地址时保持 nil，所有操作安全降级为 miss。
var (
	Client *redis.Client
	ctx    = context.Background()
)

// ErrMiss 表示键不存在或缓存未启用。
var ErrMiss = errors.New("cache miss")

// Init 建立 Redis 连接；addr 为空时跳过初始化（缓存可选）。
func Init(addr string, logger *zap.Logger) error {
	if addr == "" {
		return nil
	}

	Client = redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := Client.Ping(ctx).Err(); err != nil {
		logger.Error("redis_connection_failed", zap.Error(err), zap.String("addr", addr))
		Client = nil
		return err
	}

	logger.Info("redis_connected", zap.String("addr", addr))
	return nil
}

// Set 序列化后写入缓存，未启用时为 no-op。
func Set(key string, value interface{}, expiration time.Duration) error {
	if Client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return Client.Set(ctx, key, data, expiration).Err()
}

// Get 读取并反序列化到 dest，键不存在或未启用时返回 ErrMiss。
func Get(key string, dest interface{}) error {
	if Client == nil {
		return ErrMiss
	}

	val, err := Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrMiss
	} else if err != nil {
		return fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return nil
}

// Delete 删除指定键，未启用时为 no-op。
func Delete(keys ...string) error {
	if Client == nil || len(keys) == 0 {
		return nil
	}
	return Client.Del(ctx, keys...).Err()
}

// Close 关闭连接。
func Close() error {
	if Client != nil {
		return Client.Close()
	}
	return nil
}
