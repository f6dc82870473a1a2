package state

import (
	"go.uber.org/zap"

	"ContactBook/pkg/contactapi"
	"ContactBook/pkg/logger"
)

// ErrorMessage 把错误转成失败提示，后端错误使用其 name / message
func ErrorMessage(err error) Message {
	if apiErr, ok := contactapi.AsAPIError(err); ok {
		title := apiErr.Name
		if title == "" {
			title = "Error"
		}
		return Message{Type: MessageFail, Title: title, Content: apiErr.Message}
	}
	return Message{Type: MessageFail, Title: "Error", Content: err.Error()}
}

// FlashErrorMessage 在 store 上展示 err
func FlashErrorMessage(store *Store, err error) {
	if err == nil {
		return
	}
	if dispatchErr := store.Dispatch(Action{Type: FlashMessage, Payload: ErrorMessage(err)}); dispatchErr != nil {
		logger.Logger.Error("Failed to dispatch flash message", zap.Error(dispatchErr))
	}
}
