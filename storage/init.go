package storage

import (
	"go.uber.org/zap"

	"ContactBook/pkg/logger"
	"ContactBook/storage/redis"
)

// 统一 init storage 层，目前只有 Redis，且为可选

func Init() error {
	if err := redis.Init(); err != nil {
		return err
	}

	if redis.Enabled() {
		logger.Logger.Info("Redis connected, using distributed submit lock and rate limiting")
	} else {
		logger.Logger.Info("REDIS_ADDR not set, using in-process submit lock", zap.Bool("rate_limit", false))
	}

	return nil
}
