package contactapi

import (
	"errors"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// APIError 后端返回的错误体 {name, message, code, className, errors}，
// 网络错误与熔断也统一为该类型，页面直接展示 Name / Message
type APIError struct {
	Name      string                 `json:"name"`
	Message   string                 `json:"message"`
	Code      int                    `json:"code"`
	ClassName string                 `json:"className,omitempty"`
	Errors    map[string]interface{} `json:"errors,omitempty"`

	cause error
}

func (e *APIError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return e.Name + ": " + e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// ServerSide 网络错误（Code 为 0）与 5xx 计入熔断
func (e *APIError) ServerSide() bool {
	return e.Code == 0 || e.Code >= 500
}

// ClientSide 后端明确拒绝请求（4xx），状态码可以原样透传给浏览器
func (e *APIError) ClientSide() bool {
	return e.Code >= 400 && e.Code < 500
}

// AsAPIError 从错误链中取出 APIError
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound 后端返回 404
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == consts.StatusNotFound
}

func networkError(cause error) *APIError {
	return &APIError{Name: "Error", Message: "Network Error", cause: cause}
}

func unavailableError(cause error) *APIError {
	return &APIError{
		Name:    "Unavailable",
		Message: "Backend is temporarily unavailable, please try again shortly",
		Code:    consts.StatusServiceUnavailable,
		cause:   cause,
	}
}

// decodeAPIError 非 2xx 响应，body 不是错误结构时按状态码合成
func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{}
	if len(body) > 0 && sonic.Unmarshal(body, apiErr) == nil && apiErr.Message != "" {
		if apiErr.Code == 0 {
			apiErr.Code = status
		}
		if apiErr.Name == "" {
			apiErr.Name = "Error"
		}
		return apiErr
	}

	message := strings.TrimSpace(string(body))
	if message == "" || len(message) > 200 || strings.HasPrefix(message, "<") {
		message = consts.StatusMessage(status)
	}
	return &APIError{Name: "Error", Message: message, Code: status}
}
