package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// keyspaces 本服务写入的键族，键的最后一段是会话 ID 或 IP，不进入 trace 和指标
var keyspaces = []string{"submit:rate:block", "submit:rate", "submit:lock"}

// keyspace 返回键所属的键族，未知键归为 other
func keyspace(key string) string {
	for _, ks := range keyspaces {
		if strings.Contains(key, ":"+ks+":") {
			return ks
		}
	}
	return "other"
}

// commandKey 取命令操作的第一个键，EVAL/EVALSHA 的键在 numkeys 之后
func commandKey(cmd redis.Cmder) string {
	args := cmd.Args()
	idx := 1
	switch strings.ToLower(cmd.Name()) {
	case "eval", "evalsha", "eval_ro", "evalsha_ro":
		idx = 3
	}
	if len(args) <= idx {
		return ""
	}
	key, _ := args[idx].(string)
	return key
}

// TracingHook 锁与限流命令的 span 和耗时指标，按键族聚合
type TracingHook struct {
	tracer   trace.Tracer
	base     []attribute.KeyValue
	commands metric.Int64Counter
	duration metric.Float64Histogram
}

var _ redis.Hook = (*TracingHook)(nil)

func NewTracingHook(serviceName string, db int) *TracingHook {
	meter := otel.Meter("contactbook/redis")
	th := &TracingHook{
		tracer: otel.Tracer(serviceName + "/redis"),
		base:   []attribute.KeyValue{semconv.DBSystemRedis, semconv.DBRedisDBIndex(db)},
	}
	// 创建失败时保持 nil，record 跳过
	th.commands, _ = meter.Int64Counter("contactbook.redis.commands",
		metric.WithDescription("Redis commands issued for submit locks and rate limits"),
		metric.WithUnit("{command}"),
	)
	th.duration, _ = meter.Float64Histogram("contactbook.redis.duration",
		metric.WithDescription("Redis round-trip time"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5),
	)
	return th
}

func (th *TracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (th *TracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ks := keyspace(commandKey(cmd))
		ctx, span := th.start(ctx, cmd.Name(),
			semconv.DBOperation(cmd.Name()),
			attribute.String("contactbook.redis.keyspace", ks),
		)
		defer span.End()

		start := time.Now()
		err := next(ctx, cmd)
		th.record(ctx, span, cmd.Name(), ks, err, time.Since(start))
		return err
	}
}

// ProcessPipelineHook 限流的 ZREMRANGEBYSCORE/ZADD/ZCARD/EXPIRE 走同一个 pipeline
func (th *TracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ks := "other"
		if len(cmds) > 0 {
			ks = keyspace(commandKey(cmds[0]))
		}
		ctx, span := th.start(ctx, "pipeline",
			attribute.Int("db.redis.pipeline_length", len(cmds)),
			attribute.String("contactbook.redis.keyspace", ks),
		)
		defer span.End()

		start := time.Now()
		err := next(ctx, cmds)
		th.record(ctx, span, "pipeline", ks, err, time.Since(start))
		return err
	}
}

func (th *TracingHook) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return th.tracer.Start(ctx, "redis "+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(th.base...),
		trace.WithAttributes(attrs...),
	)
}

func (th *TracingHook) record(ctx context.Context, span trace.Span, op, ks string, err error, elapsed time.Duration) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, redis.Nil):
		// 未命中属于正常结果
		outcome = "nil"
	default:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	attrs := metric.WithAttributes(
		attribute.String("db.operation", op),
		attribute.String("contactbook.redis.keyspace", ks),
		attribute.String("outcome", outcome),
	)
	if th.commands != nil {
		th.commands.Add(ctx, 1, attrs)
	}
	if th.duration != nil {
		th.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
