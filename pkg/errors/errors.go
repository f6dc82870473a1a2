package errors

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 请求相关错误。
var (
	InvalidRequest  = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	InvalidPath     = Definition{Code: "INVALID_PATH", Message: "Invalid path parameter"}
	InvalidCSRF     = Definition{Code: "INVALID_CSRF_TOKEN", Message: "Invalid or missing CSRF token"}
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many submissions, please try again later"}
	NotFound        = Definition{Code: "NOT_FOUND", Message: "Page not found"}
)

// 联系人模块错误。
var (
	ContactInvalid       = Definition{Code: "CONTACT_INVALID", Message: "Contact form has errors"}
	ContactNotFound      = Definition{Code: "CONTACT_NOT_FOUND", Message: "Contact not found"}
	SubmissionInProgress = Definition{Code: "SUBMISSION_IN_PROGRESS", Message: "A submission is already in progress"}
)

// 后端调用错误。
var (
	BackendUnavailable = Definition{Code: "BACKEND_UNAVAILABLE", Message: "Backend is temporarily unavailable"}
	BackendFailure     = Definition{Code: "BACKEND_FAILURE", Message: "Backend request failed"}
)

// 内部错误。
var (
	Internal                 = Definition{Code: "INTERNAL_ERROR", Message: "Internal error"}
	ErrStoreNotInitialized   = Definition{Code: "STORE_NOT_INITIALIZED", Message: "UI state store not initialized"}
	ErrServiceNotInitialized = Definition{Code: "SERVICE_NOT_INITIALIZED", Message: "Contact service not initialized"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	InvalidRequest.Code:       InvalidRequest,
	InvalidPath.Code:          InvalidPath,
	InvalidCSRF.Code:          InvalidCSRF,
	TooManyRequests.Code:      TooManyRequests,
	NotFound.Code:             NotFound,
	ContactInvalid.Code:       ContactInvalid,
	ContactNotFound.Code:      ContactNotFound,
	SubmissionInProgress.Code: SubmissionInProgress,
	BackendUnavailable.Code:   BackendUnavailable,
	BackendFailure.Code:       BackendFailure,
	Internal.Code:             Internal,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}
