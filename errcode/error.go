// Package errcode 提供分层错误码
// 错误码格式：MMBBBB（MM = 模块码，BBBB = 业务码），例如 710002
package errcode

import (
	"fmt"
	"net/http"
)

// LayeredError 分层错误
// 携带模块、消息键、HTTP 状态码、上下文数据和原始错误
type LayeredError struct {
	module     string
	code       int
	msgKey     string
	msg        string
	httpStatus int
	data       map[string]any
	cause      error
}

// New 创建分层错误
// httpStatus 可选，默认 200
func New(moduleCode, businessCode int, module, msgKey, msg string, httpStatus ...int) *LayeredError {
	status := http.StatusOK
	if len(httpStatus) > 0 {
		status = httpStatus[0]
	}
	return &LayeredError{
		module:     module,
		code:       moduleCode*10000 + businessCode,
		msgKey:     msgKey,
		msg:        msg,
		httpStatus: status,
		data:       make(map[string]any),
	}
}

func (e *LayeredError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Code 完整错误码
func (e *LayeredError) Code() int { return e.code }

// Module 模块名
func (e *LayeredError) Module() string { return e.module }

// MsgKey 国际化消息键
func (e *LayeredError) MsgKey() string { return e.msgKey }

// Message 错误消息（不含 cause）
func (e *LayeredError) Message() string { return e.msg }

// HTTPStatus HTTP 状态码
func (e *LayeredError) HTTPStatus() int { return e.httpStatus }

// Data 上下文数据
func (e *LayeredError) Data() map[string]any { return e.data }

// Unwrap 支持 errors.Is / errors.As 沿错误链查找
func (e *LayeredError) Unwrap() error { return e.cause }

// Is 按错误码判断相等
func (e *LayeredError) Is(target error) bool {
	t, ok := target.(*LayeredError)
	if !ok {
		return false
	}
	return e.code == t.code
}

// WithMsg 替换消息（返回副本）
func (e *LayeredError) WithMsg(msg string) *LayeredError {
	clone := *e
	clone.msg = msg
	return &clone
}

// WithMsgf 格式化替换消息（返回副本）
func (e *LayeredError) WithMsgf(format string, args ...any) *LayeredError {
	return e.WithMsg(fmt.Sprintf(format, args...))
}

// WithData 附加单个上下文数据（返回副本）
func (e *LayeredError) WithData(key string, value any) *LayeredError {
	clone := *e
	clone.data = make(map[string]any, len(e.data)+1)
	for k, v := range e.data {
		clone.data[k] = v
	}
	clone.data[key] = value
	return &clone
}

// Wrap 包装原始错误（返回副本），cause 为 nil 时原样返回
func (e *LayeredError) Wrap(cause error) *LayeredError {
	if cause == nil {
		return e
	}
	clone := *e
	clone.cause = cause
	return &clone
}

// String 调试输出
func (e *LayeredError) String() string {
	if e.cause != nil {
		return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s, cause:%v}", e.code, e.module, e.msg, e.cause)
	}
	return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s}", e.code, e.module, e.msg)
}
