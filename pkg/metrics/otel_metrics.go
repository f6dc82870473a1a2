package metrics

import (
	"context"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics OpenTelemetry 指标集合
type OTelMetrics struct {
	// 后端 REST 调用
	BackendRequestTotal metric.Int64Counter
	BackendDuration     metric.Float64Histogram
	BreakerRejected     metric.Int64Counter

	// 表单提交
	SubmitTotal          metric.Int64Counter
	ValidationFailed     metric.Int64Counter
	SubmitLockContention metric.Int64Counter
}

var (
	metrics     *OTelMetrics
	metricsOnce sync.Once
	metricsErr  error
)

// InitMetrics 初始化指标，使用全局 MeterProvider（未配置时为 noop）
func InitMetrics() error {
	metricsOnce.Do(func() {
		metrics, metricsErr = newMetrics(otel.Meter("contactbook"))
	})
	return metricsErr
}

func newMetrics(meter metric.Meter) (*OTelMetrics, error) {
	var err error
	m := &OTelMetrics{}

	m.BackendRequestTotal, err = meter.Int64Counter(
		"backend.requests.total",
		metric.WithDescription("Total number of REST backend requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.BackendDuration, err = meter.Float64Histogram(
		"backend.request.duration",
		metric.WithDescription("REST backend request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return nil, err
	}

	m.BreakerRejected, err = meter.Int64Counter(
		"backend.breaker.rejected",
		metric.WithDescription("Requests rejected while the backend breaker was open"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.SubmitTotal, err = meter.Int64Counter(
		"contact.submit.total",
		metric.WithDescription("Contact form submissions by operation and outcome"),
		metric.WithUnit("{submit}"),
	)
	if err != nil {
		return nil, err
	}

	m.ValidationFailed, err = meter.Int64Counter(
		"contact.validation.failed",
		metric.WithDescription("Contact form field validation failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	m.SubmitLockContention, err = meter.Int64Counter(
		"contact.submit.lock_contention",
		metric.WithDescription("Submissions rejected because another one was in flight"),
		metric.WithUnit("{submit}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// GetMetrics 获取全局指标实例，未初始化时为 nil
func GetMetrics() *OTelMetrics {
	return metrics
}

// RecordBackendRequest 记录一次后端调用，status 为 0 表示网络错误
func RecordBackendRequest(ctx context.Context, operation string, status int, duration float64) {
	m := GetMetrics()
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.BackendRequestTotal.Add(ctx, 1, attrs)
	m.BackendDuration.Record(ctx, duration, attrs)
}

func RecordBreakerRejected(ctx context.Context, operation string) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.BreakerRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordSubmit 记录表单提交结果：success, invalid, failed, locked
func RecordSubmit(ctx context.Context, operation, outcome string) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.SubmitTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordValidationFailed(ctx context.Context, field string) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.ValidationFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("field", field)))
}

func RecordLockContention(ctx context.Context) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.SubmitLockContention.Add(ctx, 1)
}
