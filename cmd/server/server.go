package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"go.uber.org/zap"

	"ContactBook/config"
	"ContactBook/internal/cache"
	"ContactBook/internal/middleware"
	"ContactBook/internal/router"
	"ContactBook/internal/service"
	"ContactBook/pkg/contactapi"
	"ContactBook/pkg/logger"
	"ContactBook/pkg/metrics"
	pkgotel "ContactBook/pkg/otel"
	"ContactBook/pkg/snowflake"
	"ContactBook/storage"
)

func main() {
	logger.Init()

	if err := run(); err != nil {
		logger.Logger.Error("Server exited with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// run 按依赖顺序初始化；Spin 自带 SIGINT/SIGTERM 的优雅退出
func run() error {
	cfg := &config.Cfg

	// OTel 要先于 metrics 与 redis hook，它们从全局 provider 取 meter
	if cfg.OTelEnabled {
		shutdown, err := pkgotel.Setup(context.Background(), pkgotel.Config{
			ServiceName:    cfg.ServiceName,
			ServiceVersion: cfg.ServiceVer,
			Environment:    cfg.Environment,
			Endpoint:       cfg.OTelEndpoint,
			SampleRatio:    cfg.OTelSampleRatio,
		})
		if err != nil {
			logger.Logger.Warn("OpenTelemetry disabled", zap.Error(err))
		} else {
			defer flushTelemetry(shutdown)
		}
	}

	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Warn("Failed to initialize metrics", zap.Error(err))
	}

	if err := storage.Init(); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer storage.Close()

	if err := snowflake.Init(cfg.SnowflakeMachineID, cfg.SnowflakeDataCenter); err != nil {
		return fmt.Errorf("init request id generator: %w", err)
	}
	if err := contactapi.Init(); err != nil {
		return fmt.Errorf("init contact api client: %w", err)
	}
	service.InitContact(contactapi.GetClient(), cache.NewLocker(), cfg.SubmitLockTTL)

	if err := middleware.Init(); err != nil {
		return fmt.Errorf("init middleware: %w", err)
	}

	h := newServer(cfg)
	if err := router.Register(h); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}

	logger.Logger.Info("Contact book listening",
		zap.String("addr", net.JoinHostPort(cfg.ServerHost, cfg.ServerPort)),
		zap.String("backend", cfg.BackendBaseURL),
		zap.String("environment", cfg.Environment),
		zap.Bool("otel", cfg.OTelEnabled),
	)
	h.Spin()
	logger.Logger.Info("Server stopped")
	return nil
}

func newServer(cfg *config.Config) *server.Hertz {
	opts := []hertzconfig.Option{
		server.WithHostPorts(net.JoinHostPort(cfg.ServerHost, cfg.ServerPort)),
		server.WithExitWaitTime(5 * time.Second),
	}
	if !cfg.OTelEnabled {
		return server.New(opts...)
	}

	// tracer 中间件必须排在路由中间件之前
	tracerOpt, tracerMw := middleware.NewServerTracerConfig()
	h := server.New(append(opts, tracerOpt)...)
	h.Use(tracerMw)
	return h
}

func flushTelemetry(shutdown pkgotel.Shutdown) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Logger.Error("Failed to flush telemetry", zap.Error(err))
	}
}
