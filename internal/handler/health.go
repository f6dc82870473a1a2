package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"ContactBook/config"
	"ContactBook/internal/model"
	"ContactBook/pkg/contactapi"
)

// Health 存活探针，附带后端熔断器状态
// GET /healthz
func Health(ctx context.Context, c *app.RequestContext) {
	breakerState := "disabled"
	if contactapi.Breaker != nil {
		breakerState = contactapi.Breaker.State().String()
	}

	c.JSON(consts.StatusOK, model.HealthStatus{
		Status:  "ok",
		Service: config.Cfg.ServiceName,
		Version: config.Cfg.ServiceVer,
		Breaker: breakerState,
	})
}
