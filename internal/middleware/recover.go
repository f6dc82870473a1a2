package middleware

import (
	"bytes"
	"context"
	"fmt"
	"runtime/debug"

	"github.com/cloudwego/hertz/pkg/app"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"ContactBook/config"
	"ContactBook/pkg/errors"
	"ContactBook/pkg/logger"
	"ContactBook/pkg/response"
)

// RecoverConfig panic 恢复配置
type RecoverConfig struct {
	// 生产环境只返回通用错误页，panic 内容和堆栈只进日志
	IsProduction bool
}

func RecoverMiddleware() app.HandlerFunc {
	return RecoverMiddlewareWithConfig(RecoverConfig{IsProduction: config.Cfg.IsProduction()})
}

func RecoverMiddlewareWithConfig(cfg RecoverConfig) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if r := recover(); r != nil {
				stack := trimStack(debug.Stack())
				logPanic(ctx, c, r, stack)

				// 模板可能已写了一半
				c.Response.ResetBody()
				if cfg.IsProduction {
					response.Error(ctx, c, errors.Internal)
				} else {
					response.ErrorWithDetails(ctx, c, errors.Definition{
						Code:    errors.Internal.Code,
						Message: fmt.Sprintf("Internal error: %v", r),
					}, map[string]interface{}{"stack": string(stack)})
				}
				c.Abort()
			}
		}()

		c.Next(ctx)
	}
}

// trimStack 去掉 debug.Stack 开头的 goroutine 行以及 runtime、recover 自身的帧
func trimStack(stack []byte) []byte {
	lines := bytes.Split(stack, []byte("\n"))
	out := make([][]byte, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if bytes.HasPrefix(line, []byte("goroutine ")) {
			continue
		}
		// 函数行后面跟一行文件位置，成对跳过
		if bytes.HasPrefix(line, []byte("runtime/debug.")) ||
			bytes.HasPrefix(line, []byte("panic(")) ||
			bytes.Contains(line, []byte("RecoverMiddlewareWithConfig")) {
			i++
			continue
		}
		out = append(out, line)
	}
	return bytes.TrimSpace(bytes.Join(out, []byte("\n")))
}

func logPanic(ctx context.Context, c *app.RequestContext, r interface{}, stack []byte) {
	fields := []zap.Field{
		zap.String("panic", fmt.Sprint(r)),
		zap.String("method", string(c.Method())),
		zap.String("route", c.FullPath()),
		zap.String("path", string(c.Path())),
		zap.String("request_id", GetRequestID(c)),
		zap.ByteString("stack", stack),
	}
	if id := c.Param("id"); id != "" {
		fields = append(fields, zap.String("contact_id", id))
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(fmt.Errorf("panic: %v", r))
		span.SetStatus(codes.Error, "panic recovered")
	}

	logger.Logger.Error("Panic recovered", fields...)
}
