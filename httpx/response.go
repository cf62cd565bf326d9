// Package httpx 提供 HTTP 请求/响应的统一处理
package httpx

import (
	"errors"
	"net/http"

	"github.com/KOMKZ/go-yogan-feed/database"
	"github.com/KOMKZ/go-yogan-feed/errcode"
	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 通用错误（模块码 10）
var (
	ErrBadRequest = errcode.Register(errcode.New(
		10, 1001, "common", "error.common.bad_request", "请求参数错误", http.StatusBadRequest))
	ErrUnauthorized = errcode.Register(errcode.New(
		10, 1401, "common", "error.common.unauthorized", "缺少访问者身份", http.StatusUnauthorized))
	ErrNotFound = errcode.Register(errcode.New(
		10, 1004, "common", "error.common.not_found", "资源不存在", http.StatusNotFound))
	ErrMethodNotAllowed = errcode.Register(errcode.New(
		10, 1005, "common", "error.common.method_not_allowed", "方法不允许", http.StatusMethodNotAllowed))
	ErrInternal = errcode.Register(errcode.New(
		10, 1500, "common", "error.common.internal", "服务器内部错误", http.StatusInternalServerError))
)

// Response 统一响应格式
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
	Data any    `json:"data,omitempty"`
}

// OkJson 成功响应
func OkJson(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code: 0,
		Msg:  "success",
		Data: data,
	})
}

// CreatedJson 201 响应
func CreatedJson(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{
		Code: 0,
		Msg:  "success",
		Data: data,
	})
}

// ErrorJson 按 LayeredError 输出
func ErrorJson(c *gin.Context, err *errcode.LayeredError) {
	resp := Response{Code: err.Code(), Msg: err.Message()}
	if len(err.Data()) > 0 {
		resp.Data = err.Data()
	}
	c.JSON(err.HTTPStatus(), resp)
}

// NoRouteHandler 404
func NoRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ErrorJson(c, ErrNotFound.WithMsgf("路由不存在: %s %s", c.Request.Method, c.Request.URL.Path))
	}
}

// NoMethodHandler 405
func NoMethodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ErrorJson(c, ErrMethodNotAllowed.WithMsgf("方法不允许: %s %s", c.Request.Method, c.Request.URL.Path))
	}
}

// HandleError 统一错误处理
//
// LayeredError 原样返回其状态码、错误码和消息；database.ErrRecordNotFound 视为 404；
// 其余错误一律 500，不向客户端暴露内部信息。是否记录日志由 ErrorLoggingMiddleware 注入的策略决定。
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	policy := policyFrom(c)

	var layeredErr *errcode.LayeredError
	switch {
	case errors.As(err, &layeredErr):
	case errors.Is(err, database.ErrRecordNotFound):
		layeredErr = ErrNotFound.Wrap(err)
	default:
		layeredErr = ErrInternal.Wrap(err)
	}

	if status := layeredErr.HTTPStatus(); policy.shouldLog(status) {
		fields := []zap.Field{
			zap.Int("error_code", layeredErr.Code()),
			zap.Int("status", status),
			zap.String("path", c.Request.URL.Path),
		}
		if policy.fullChain || status >= http.StatusInternalServerError {
			fields = append(fields, zap.Error(err))
		}
		logAt(c, policy.levelFor(status), layeredErr.Message(), fields...)
	}
	ErrorJson(c, layeredErr)
}

func logAt(c *gin.Context, level, msg string, fields ...zap.Field) {
	ctx := c.Request.Context()
	switch level {
	case "warn":
		logger.WarnCtx(ctx, "httpx", msg, fields...)
	case "info":
		logger.InfoCtx(ctx, "httpx", msg, fields...)
	default:
		logger.ErrorCtx(ctx, "httpx", msg, fields...)
	}
}
