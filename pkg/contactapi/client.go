package contactapi

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"ContactBook/config"
	"ContactBook/internal/model"
	"ContactBook/pkg/breaker"
	"ContactBook/pkg/logger"
)

const (
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// Client 联系人 REST 后端
type Client interface {
	// List GET /contacts，兼容分页结构和裸数组
	List(ctx context.Context) ([]model.Contact, error)
	// Get GET /contacts/:id
	Get(ctx context.Context, id string) (model.Contact, error)
	// Create POST /contacts，返回后端创建的记录
	Create(ctx context.Context, contact model.Contact) (model.Contact, error)
	// Update PATCH /contacts/:id，返回更新后的记录
	Update(ctx context.Context, id string, contact model.Contact) (model.Contact, error)
	// Delete DELETE /contacts/:id，返回被删除的记录
	Delete(ctx context.Context, id string) (model.Contact, error)
}

var (
	apiClient Client
	apiOnce   sync.Once
	apiErr    error

	// Breaker 后端熔断器，Init 时按配置创建
	Breaker *breaker.CircuitBreaker
)

// Init 初始化后端客户端
func Init() error {
	apiOnce.Do(func() {
		cfg := config.Cfg

		Breaker = breaker.New("contacts_backend", cfg.BreakerMaxFailures, cfg.BreakerReset)

		cli, err := NewHertzClient(Options{
			BaseURL:  cfg.BackendBaseURL,
			Timeout:  cfg.BackendTimeout,
			MaxConns: cfg.BackendMaxConns,
			Breaker:  Breaker,
			Tracing:  cfg.OTelEnabled,
		})
		if err != nil {
			apiErr = err
			logger.Logger.Error("Failed to initialize contact API client", zap.Error(err))
			return
		}
		apiClient = cli

		logger.Logger.Info("Contact API client initialized successfully",
			zap.String("base_url", cfg.BackendBaseURL),
			zap.Duration("timeout", cfg.BackendTimeout),
		)
	})

	return apiErr
}

func GetClient() Client {
	if apiClient == nil {
		panic("contact API client not initialized, call contactapi.Init() first")
	}
	return apiClient
}

type requestIDKey struct{}

// WithRequestID 把入站请求 ID 带到后端调用
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
