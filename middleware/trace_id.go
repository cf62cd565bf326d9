// Package middleware 提供 gin 中间件：trace id、请求日志、panic 恢复、HTTP 指标、访问者身份
package middleware

import (
	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	TraceIDKeyDefault    = "trace_id"
	TraceIDHeaderDefault = "X-Trace-ID"

	// 上游传入的 trace id 超过该长度视为非法并重新生成
	maxTraceIDLen = 128
)

// TraceConfig 零值可用：key 与 header 使用默认值，不回写响应头
type TraceConfig struct {
	TraceIDKey           string
	TraceIDHeader        string
	EnableResponseHeader bool
	Generator            func() string
}

func DefaultTraceConfig() TraceConfig {
	return TraceConfig{
		TraceIDKey:           TraceIDKeyDefault,
		TraceIDHeader:        TraceIDHeaderDefault,
		EnableResponseHeader: true,
	}
}

// TraceID 确定本次请求的 trace id 并写入 gin.Context 与 request context
//
// 优先级：otelgin 创建的 span > 合法的请求头 > 新生成的 UUID。
func TraceID(cfg TraceConfig) gin.HandlerFunc {
	key := orDefault(cfg.TraceIDKey, TraceIDKeyDefault)
	header := orDefault(cfg.TraceIDHeader, TraceIDHeaderDefault)
	generate := cfg.Generator
	if generate == nil {
		generate = uuid.NewString
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		traceID := ""
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			traceID = sc.TraceID().String()
		} else {
			if traceID = c.GetHeader(header); !validTraceID(traceID) {
				traceID = generate()
			}
			c.Request = c.Request.WithContext(logger.WithTraceID(ctx, traceID))
		}

		c.Set(key, traceID)
		if cfg.EnableResponseHeader {
			c.Header(header, traceID)
		}
		c.Next()
	}
}

// GetTraceID 从 gin.Context 读取（默认 key）
func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKeyDefault)
}

// validTraceID 只接受可打印的 ASCII 字母数字与 - _ .，防止日志注入
func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		ch := id[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-', ch == '_', ch == '.':
		default:
			return false
		}
	}
	return true
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
