package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"

	"ContactBook/config"
	"ContactBook/internal/handler"
	"ContactBook/internal/middleware"
	"ContactBook/pkg/errors"
	"ContactBook/pkg/response"
	"ContactBook/web"
)

func Register(h *server.Hertz) error {
	tmpl, err := web.LoadTemplates()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	h.SetHTMLTemplate(tmpl)

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.RequestIDMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	h.GET("/healthz", handler.Health)

	h.NoRoute(func(ctx context.Context, c *app.RequestContext) {
		response.Error(ctx, c, errors.NotFound)
	})

	pageMiddlewares := middleware.SessionMiddleware()
	if config.Cfg.CSRFEnabled {
		pageMiddlewares = append(pageMiddlewares, middleware.CSRFMiddleware())
	}
	pageMiddlewares = append(pageMiddlewares, middleware.StateMiddleware())

	// 页面路由
	pages := h.Group("/", pageMiddlewares...)
	{
		pages.GET("/", handler.ListContacts)
		pages.GET("/contacts/new", handler.NewContactForm)
		pages.GET("/contacts/edit/:id", handler.EditContactForm)
	}

	// 提交路由，按会话限流
	submits := pages.Group("/contacts", middleware.RateLimitMiddleware(middleware.SubmitRateLimitConfig()))
	{
		submits.POST("/new", handler.CreateContact)
		submits.POST("/edit/:id", handler.UpdateContact)
		submits.POST("/delete/:id", handler.DeleteContact)
	}

	return nil
}
