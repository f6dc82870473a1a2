package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"ContactBook/config"
	pkgredis "ContactBook/pkg/redis"
)

const defaultPrefix = "cbook"

var (
	client  *redis.Client
	once    sync.Once
	initErr error
)

// options 提交锁和限流只跑短命令，超时取小值，Redis 抖动时尽快放行
func options(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     16,
		MaxRetries:   1,
	}
}

// Init 未配置 REDIS_ADDR 时什么也不做，调用方通过 Enabled 判断
func Init() error {
	once.Do(func() {
		cfg := &config.Cfg
		if !cfg.RedisEnabled() {
			return
		}

		c := redis.NewClient(options(cfg))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Ping(ctx).Err(); err != nil {
			_ = c.Close()
			initErr = fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
			return
		}

		c.AddHook(pkgredis.NewTracingHook(cfg.ServiceName, cfg.RedisDB))
		client = c
	})
	return initErr
}

func Enabled() bool {
	return client != nil
}

func Client() *redis.Client {
	if client == nil {
		panic("redis client not initialized, set REDIS_ADDR and call storage.Init()")
	}
	return client
}

func Close(context.Context) error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// Key 拼接带前缀的键，空段跳过
func Key(parts ...string) string {
	prefix := config.Cfg.RedisPrefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	segs := make([]string, 0, len(parts)+1)
	segs = append(segs, prefix)
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return strings.Join(segs, ":")
}
