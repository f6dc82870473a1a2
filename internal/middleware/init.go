package middleware

import (
	"go.uber.org/zap"

	"ContactBook/pkg/logger"
)

// Init 初始化依赖全局状态的中间件组件，须在 otel 与 redis 之后调用
func Init() error {
	if err := InitMetrics(); err != nil {
		logger.Logger.Error("Failed to initialize HTTP metrics", zap.Error(err))
		return err
	}

	logger.Logger.Info("All middlewares initialized successfully")
	return nil
}
