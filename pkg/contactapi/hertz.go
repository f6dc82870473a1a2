package contactapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ContactBook/internal/model"
	"ContactBook/pkg/breaker"
	"ContactBook/pkg/logger"
	"ContactBook/pkg/metrics"
)

// Options HertzClient 配置
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	MaxConns int
	// Breaker 为 nil 时不做熔断
	Breaker *breaker.CircuitBreaker
	// Tracing 为 true 时挂载 OpenTelemetry 客户端中间件
	Tracing bool
}

// HertzClient 基于 hertz client 的 REST 实现
type HertzClient struct {
	base    string
	timeout time.Duration
	cli     *client.Client
	breaker *breaker.CircuitBreaker
}

var _ Client = (*HertzClient)(nil)

func NewHertzClient(opts Options) (*HertzClient, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("contactapi: base URL is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.MaxConns <= 0 {
		opts.MaxConns = 64
	}

	cli, err := client.NewClient(
		client.WithDialTimeout(opts.Timeout),
		client.WithClientReadTimeout(opts.Timeout),
		client.WithMaxConnsPerHost(opts.MaxConns),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create hertz client: %w", err)
	}

	if opts.Tracing {
		cli.Use(hertztracing.ClientMiddleware())
	}

	if opts.Breaker != nil {
		// 4xx 是调用方的问题，不代表后端不可用
		opts.Breaker.IsFailure = func(err error) bool {
			if apiErr, ok := AsAPIError(err); ok {
				return apiErr.ServerSide()
			}
			return false
		}
	}

	return &HertzClient{
		base:    opts.BaseURL,
		timeout: opts.Timeout,
		cli:     cli,
		breaker: opts.Breaker,
	}, nil
}

func (c *HertzClient) List(ctx context.Context) ([]model.Contact, error) {
	var raw []byte
	if err := c.do(ctx, "list", consts.MethodGet, "/contacts", nil, &raw); err != nil {
		return nil, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []model.Contact{}, nil
	}

	// 未分页时后端直接返回数组
	if raw[0] == '[' {
		var contacts []model.Contact
		if err := sonic.Unmarshal(raw, &contacts); err != nil {
			return nil, fmt.Errorf("decode contact list: %w", err)
		}
		return contacts, nil
	}

	var page model.ContactPage
	if err := sonic.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode contact page: %w", err)
	}
	if page.Data == nil {
		page.Data = []model.Contact{}
	}
	return page.Data, nil
}

func (c *HertzClient) Get(ctx context.Context, id string) (model.Contact, error) {
	var out model.Contact
	err := c.do(ctx, "get", consts.MethodGet, contactPath(id), nil, &out)
	return out, err
}

func (c *HertzClient) Create(ctx context.Context, contact model.Contact) (model.Contact, error) {
	var out model.Contact
	err := c.do(ctx, "create", consts.MethodPost, "/contacts", requestBody(contact), &out)
	return out, err
}

func (c *HertzClient) Update(ctx context.Context, id string, contact model.Contact) (model.Contact, error) {
	var out model.Contact
	err := c.do(ctx, "update", consts.MethodPatch, contactPath(id), contact.Patch(), &out)
	return out, err
}

func (c *HertzClient) Delete(ctx context.Context, id string) (model.Contact, error) {
	var out model.Contact
	err := c.do(ctx, "delete", consts.MethodDelete, contactPath(id), nil, &out)
	return out, err
}

func contactPath(id string) string {
	return "/contacts/" + url.PathEscape(id)
}

// requestBody 新建请求体，ID 与时间戳由后端维护
func requestBody(contact model.Contact) model.Contact {
	contact.ID = ""
	contact.CreatedAt = nil
	contact.UpdatedAt = nil
	return contact
}

func (c *HertzClient) do(ctx context.Context, op, method, path string, in, out interface{}) error {
	if c.breaker == nil {
		return c.roundTrip(ctx, op, method, path, in, out)
	}

	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		return c.roundTrip(ctx, op, method, path, in, out)
	})
	if errors.Is(err, breaker.ErrOpen) {
		metrics.RecordBreakerRejected(ctx, op)
		return unavailableError(err)
	}
	return err
}

func (c *HertzClient) roundTrip(ctx context.Context, op, method, path string, in, out interface{}) error {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	req.SetMethod(method)
	req.SetRequestURI(c.base + path)
	req.Header.Set("Accept", "application/json")

	if id := RequestIDFrom(ctx); id != "" {
		req.Header.Set(HeaderRequestID, id)
	}
	if method == consts.MethodPost {
		req.Header.Set(HeaderIdempotencyKey, uuid.NewString())
	}

	if in != nil {
		body, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		req.Header.SetContentTypeBytes([]byte("application/json"))
		req.SetBody(body)
	}

	start := time.Now()
	err := c.cli.DoTimeout(ctx, req, resp, c.timeout)
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordBackendRequest(ctx, op, 0, elapsed.Seconds())
		logger.Logger.Warn("Backend request failed",
			zap.String("operation", op),
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", RequestIDFrom(ctx)),
			zap.Error(err),
		)
		return networkError(err)
	}

	status := resp.StatusCode()
	metrics.RecordBackendRequest(ctx, op, status, elapsed.Seconds())

	if status/100 != 2 {
		apiErr := decodeAPIError(status, resp.Body())
		logger.Logger.Info("Backend returned error",
			zap.String("operation", op),
			zap.Int("status", status),
			zap.String("name", apiErr.Name),
			zap.String("message", apiErr.Message),
			zap.String("request_id", RequestIDFrom(ctx)),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}

	body := resp.Body()
	if raw, ok := out.(*[]byte); ok {
		*raw = append((*raw)[:0], body...)
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}
