package middleware

import (
	"context"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"github.com/hertz-contrib/csrf"
	"github.com/hertz-contrib/sessions"
	"github.com/hertz-contrib/sessions/cookie"
	"go.uber.org/zap"

	"ContactBook/config"
	"ContactBook/internal/state"
	"ContactBook/pkg/errors"
	"ContactBook/pkg/logger"
	"ContactBook/pkg/response"
)

const (
	sessionIDKey = "sid"
	flashKey     = "flash"
	stateKey     = "ui_state"

	// CSRFField 表单中 CSRF token 的字段名
	CSRFField = "csrf"
)

// SessionMiddleware cookie 会话，并保证每个会话都有 sid
func SessionMiddleware() []app.HandlerFunc {
	store := cookie.NewStore([]byte(config.Cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		Secure:   config.Cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	return []app.HandlerFunc{
		sessions.New(config.Cfg.SessionName, store),
		ensureSessionID,
	}
}

func ensureSessionID(ctx context.Context, c *app.RequestContext) {
	session := sessions.Default(c)
	if sid, _ := session.Get(sessionIDKey).(string); sid == "" {
		session.Set(sessionIDKey, uuid.NewString())
		if err := session.Save(); err != nil {
			logger.Logger.Error("Failed to save session", zap.Error(err))
		}
	}
	c.Next(ctx)
}

// SessionID 当前浏览器会话的标识，用作提交锁的键
func SessionID(c *app.RequestContext) string {
	sid, _ := sessions.Default(c).Get(sessionIDKey).(string)
	return sid
}

// CSRFMiddleware 校验表单中的 csrf 字段，依赖 SessionMiddleware
func CSRFMiddleware() app.HandlerFunc {
	return csrf.New(
		csrf.WithSecret(config.Cfg.CSRFSecret),
		csrf.WithKeyLookUp("form:"+CSRFField),
		csrf.WithErrorFunc(func(ctx context.Context, c *app.RequestContext) {
			logger.Logger.Warn("CSRF validation failed",
				zap.String("path", string(c.Path())),
				zap.String("request_id", GetRequestID(c)),
				zap.Error(c.Errors.Last()),
			)
			response.Error(ctx, c, errors.InvalidCSRF)
			c.Abort()
		}),
	)
}

// CSRFToken 关闭 CSRF 时返回空串
func CSRFToken(c *app.RequestContext) string {
	if !config.Cfg.CSRFEnabled {
		return ""
	}
	return csrf.GetToken(c)
}

// PushFlash 保存一条跨重定向的提示，下一次页面渲染时展示
func PushFlash(c *app.RequestContext, msg state.Message) error {
	raw, err := sonic.MarshalString(msg)
	if err != nil {
		return err
	}

	session := sessions.Default(c)
	session.AddFlash(raw, flashKey)
	return session.Save()
}

// PullFlash 取出并清除待展示的提示，多条时只保留最后一条
func PullFlash(c *app.RequestContext) (state.Message, bool) {
	session := sessions.Default(c)
	flashes := session.Flashes(flashKey)
	if len(flashes) == 0 {
		return state.Message{}, false
	}
	if err := session.Save(); err != nil {
		logger.Logger.Error("Failed to save session after reading flash", zap.Error(err))
	}

	raw, ok := flashes[len(flashes)-1].(string)
	if !ok {
		return state.Message{}, false
	}

	var msg state.Message
	if err := sonic.UnmarshalString(raw, &msg); err != nil {
		logger.Logger.Warn("Discarding malformed flash message", zap.Error(err))
		return state.Message{}, false
	}
	return msg, !msg.Empty()
}

// StateMiddleware 为每个请求创建页面状态，并放入上一请求留下的提示
func StateMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		store := state.NewStore(state.State{})

		// 重定向响应不渲染页面，提示留给下一次
		if c.IsGet() {
			if msg, ok := PullFlash(c); ok {
				if err := store.Dispatch(state.Action{Type: state.FlashMessage, Payload: msg}); err != nil {
					logger.Logger.Error("Failed to restore flash message", zap.Error(err))
				}
			}
		}

		c.Set(stateKey, store)
		c.Next(ctx)
	}
}

// GetStore 返回当前请求的页面状态
func GetStore(c *app.RequestContext) (*state.Store, error) {
	v, exists := c.Get(stateKey)
	if !exists {
		return nil, errors.ErrStoreNotInitialized
	}
	store, ok := v.(*state.Store)
	if !ok {
		return nil, errors.ErrStoreNotInitialized
	}
	return store, nil
}
