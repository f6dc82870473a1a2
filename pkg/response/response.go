package response

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"

	"ContactBook/internal/model"
	"ContactBook/pkg/contactapi"
	"ContactBook/pkg/errors"
)

// RequestIDKey 请求 ID 在 RequestContext 中的键
const RequestIDKey = "request_id"

// ErrorTemplate 错误页模板名
const ErrorTemplate = "error.html"

// StatusFor 错误到 HTTP 状态码的映射
func StatusFor(err error) int {
	if apiErr, ok := contactapi.AsAPIError(err); ok {
		// 只透传 4xx，5xx、网络错误和异常状态码对浏览器而言都是网关问题
		if apiErr.ClientSide() {
			return apiErr.Code
		}
		return http.StatusBadGateway
	}

	var def errors.Definition
	if !stderrors.As(err, &def) {
		return http.StatusInternalServerError
	}

	switch def.Code {
	case errors.InvalidRequest.Code, errors.InvalidPath.Code:
		return http.StatusBadRequest // 400
	case errors.InvalidCSRF.Code:
		return http.StatusForbidden // 403
	case errors.NotFound.Code, errors.ContactNotFound.Code:
		return http.StatusNotFound // 404
	case errors.SubmissionInProgress.Code:
		return http.StatusConflict // 409
	case errors.ContactInvalid.Code:
		return http.StatusUnprocessableEntity // 422
	case errors.TooManyRequests.Code:
		return http.StatusTooManyRequests // 429
	case errors.BackendUnavailable.Code, errors.BackendFailure.Code:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

func codeAndMessage(err error) (string, string) {
	if apiErr, ok := contactapi.AsAPIError(err); ok {
		if apiErr.ClientSide() {
			return errors.InvalidRequest.Code, apiErr.Message
		}
		return errors.BackendFailure.Code, apiErr.Message
	}

	var def errors.Definition
	if stderrors.As(err, &def) {
		return def.Code, def.Message
	}
	return errors.Internal.Code, err.Error()
}

// WantsJSON Accept 明确要求 JSON 时返回 true，浏览器默认拿到 HTML
func WantsJSON(c *app.RequestContext) bool {
	accept := string(c.GetHeader("Accept"))
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

// Error 返回错误响应，按 Accept 选择 JSON 或错误页
func Error(ctx context.Context, c *app.RequestContext, err error) {
	ErrorWithDetails(ctx, c, err, nil)
}

func ErrorWithDetails(ctx context.Context, c *app.RequestContext, err error, details map[string]interface{}) {
	status := StatusFor(err)
	code, message := codeAndMessage(err)

	if WantsJSON(c) {
		resp := model.NewErrorResponse(code, message, details)
		resp.Meta.RequestID = c.GetString(RequestIDKey)
		c.JSON(status, resp)
		return
	}

	c.HTML(status, ErrorTemplate, utils.H{
		"Status":    status,
		"Title":     http.StatusText(status),
		"Code":      code,
		"Message":   message,
		"Details":   details,
		"RequestID": c.GetString(RequestIDKey),
	})
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, model.NewSuccessResponse(data, c.GetString(RequestIDKey)))
}
