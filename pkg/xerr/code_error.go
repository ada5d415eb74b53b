package xerr

import (
	"fmt"
	"net/http"
)

// CodeError 自定义错误结构
type CodeError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Extra   map[string]any `json:"-"`
}

// Error 实现 error 接口
func (e *CodeError) Error() string {
	return fmt.Sprintf("Code: %d, Message: %s", e.Code, e.Message)
}

// HTTPStatus 返回错误码对应的 HTTP 状态码；业务扩展码（>=1000）按前三位归类
func (e *CodeError) HTTPStatus() int {
	code := e.Code
	for code >= 1000 {
		code /= 10
	}
	if code < 100 || code > 599 {
		return http.StatusInternalServerError
	}
	return code
}

// WithExtra 附加到响应体中的额外字段
func (e *CodeError) WithExtra(key string, value any) *CodeError {
	out := &CodeError{Code: e.Code, Message: e.Message, Extra: make(map[string]any, len(e.Extra)+1)}
	for k, v := range e.Extra {
		out.Extra[k] = v
	}
	out.Extra[key] = value
	return out
}

// New 创建新的 CodeError
func New(code int, msg string) *CodeError {
	return &CodeError{Code: code, Message: msg}
}

// 常用通用错误码
const (
	BadRequest          = 400
	InternalServerError = 500

	// PartialIngestion 文档只写入了部分 chunk，HTTP 状态为 500
	PartialIngestion = 5001
)

// 常用预定义错误
var (
	ErrServerError = New(InternalServerError, "internal server error")
	ErrParam       = New(BadRequest, "invalid request parameters")
)
