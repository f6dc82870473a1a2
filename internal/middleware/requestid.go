package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ContactBook/pkg/contactapi"
	"ContactBook/pkg/logger"
	"ContactBook/pkg/response"
	"ContactBook/pkg/snowflake"
)

const maxRequestIDLen = 64

// RequestIDMiddleware 沿用客户端的 X-Request-ID，否则用 snowflake 生成，
// 同时写入响应头并带到后端调用
func RequestIDMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		requestID := string(c.GetHeader(contactapi.HeaderRequestID))
		if !validRequestID(requestID) {
			requestID = ""
		}

		if requestID == "" {
			var err error
			requestID, err = snowflake.NextString()
			if err != nil {
				logger.Logger.Debug("Snowflake unavailable, falling back to uuid", zap.Error(err))
				requestID = uuid.NewString()
			}
		}

		c.Set(response.RequestIDKey, requestID)
		c.Response.Header.Set(contactapi.HeaderRequestID, requestID)

		c.Next(contactapi.WithRequestID(ctx, requestID))
	}
}

// GetRequestID 返回当前请求的 ID
func GetRequestID(c *app.RequestContext) string {
	return c.GetString(response.RequestIDKey)
}

// validRequestID 只接受不超长的可打印 ASCII，避免把任意内容回写到响应头和日志
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
