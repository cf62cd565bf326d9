package middleware

import (
	"time"

	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestLogConfig 请求日志配置
type RequestLogConfig struct {
	// SkipPaths 不记录的路径，如 /healthz
	SkipPaths []string `mapstructure:"skip_paths"`
	// SlowThreshold 超过该耗时的请求至少按 Warn 记录，0 表示不判断
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

// RequestLog 每个请求一条结构化日志，替代 gin.Logger()
//
// 级别：5xx Error，4xx 或慢请求 Warn，其余 Info。trace_id 由 logger 从 context 带出。
func RequestLog(cfg RequestLogConfig, log *logger.CtxZapLogger) gin.HandlerFunc {
	if log == nil {
		log = logger.GetLogger("http")
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		slow := cfg.SlowThreshold > 0 && latency >= cfg.SlowThreshold

		fields := make([]zap.Field, 0, 12)
		fields = append(fields,
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.Int("body_size", c.Writer.Size()),
			zap.String("client_ip", c.ClientIP()),
		)
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if viewer := ViewerID(c); viewer != 0 {
			fields = append(fields, zap.Uint64("viewer_id", viewer))
		}
		if slow {
			fields = append(fields, zap.Bool("slow", true))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, zap.String("error", errs))
		}

		ctx := c.Request.Context()
		switch requestLevel(status, slow) {
		case zapcore.ErrorLevel:
			log.ErrorCtx(ctx, "HTTP 请求", fields...)
		case zapcore.WarnLevel:
			log.WarnCtx(ctx, "HTTP 请求", fields...)
		default:
			log.InfoCtx(ctx, "HTTP 请求", fields...)
		}
	}
}

func requestLevel(status int, slow bool) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400 || slow:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
