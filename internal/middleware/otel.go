package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"ContactBook/pkg/logger"
)

const unmatchedRoute = "unmatched"

// pageInstruments 页面与表单提交的请求指标
type pageInstruments struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	inflight metric.Int64UpDownCounter
}

var (
	pageMetrics     *pageInstruments
	pageMetricsOnce sync.Once
	pageMetricsErr  error
)

// InitMetrics 用全局 MeterProvider 创建指标，未启用 OTel 时为 noop
func InitMetrics() error {
	pageMetricsOnce.Do(func() {
		pageMetrics, pageMetricsErr = newPageInstruments(otel.Meter("contactbook/http"))
	})
	return pageMetricsErr
}

func newPageInstruments(meter metric.Meter) (*pageInstruments, error) {
	requests, err := meter.Int64Counter("contactbook.http.requests",
		metric.WithDescription("Page views and form submissions by route and status class"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	// 页面渲染加一次后端往返，桶上限对齐后端超时
	duration, err := meter.Float64Histogram("contactbook.http.duration",
		metric.WithDescription("Time to serve a page or submission"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5),
	)
	if err != nil {
		return nil, err
	}

	inflight, err := meter.Int64UpDownCounter("contactbook.http.inflight",
		metric.WithDescription("Requests currently being served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &pageInstruments{requests: requests, duration: duration, inflight: inflight}, nil
}

// routeLabel 用路由模板作标签，未匹配的路径归为一类
func routeLabel(c *app.RequestContext) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}

// OpenTelemetryMiddleware 记录请求指标，并把请求 ID、联系人 ID 写到当前 span
func OpenTelemetryMiddleware() app.HandlerFunc {
	if err := InitMetrics(); err != nil {
		logger.Logger.Warn("Failed to initialize HTTP metrics", zap.Error(err))
		return func(ctx context.Context, c *app.RequestContext) { c.Next(ctx) }
	}
	return observe(pageMetrics)
}

func observe(m *pageInstruments) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		route := routeLabel(c)
		method := string(c.Method())

		inflightAttrs := metric.WithAttributes(semconv.HTTPRoute(route))
		m.inflight.Add(ctx, 1, inflightAttrs)
		defer m.inflight.Add(ctx, -1, inflightAttrs)

		c.Next(ctx)

		status := c.Response.StatusCode()
		attrs := metric.WithAttributes(
			semconv.HTTPMethod(method),
			semconv.HTTPRoute(route),
			attribute.String("http.status_class", statusClass(status)),
		)
		m.requests.Add(ctx, 1, attrs)
		m.duration.Record(ctx, time.Since(start).Seconds(), attrs)

		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}
		span.SetAttributes(
			semconv.HTTPRoute(route),
			attribute.String("contactbook.request_id", GetRequestID(c)),
		)
		if id := c.Param("id"); id != "" {
			span.SetAttributes(attribute.String("contactbook.contact_id", id))
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

// NewServerTracerConfig hertz server 的追踪选项与对应中间件
func NewServerTracerConfig(opts ...hertztracing.Option) (config.Option, app.HandlerFunc) {
	tracer, cfg := hertztracing.NewServerTracer(opts...)
	return tracer, hertztracing.ServerMiddleware(cfg)
}
