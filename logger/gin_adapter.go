package logger

import (
	"strings"

	"go.uber.org/zap"
)

// GinLogWriter 把 gin 写到 DefaultWriter/DefaultErrorWriter 的文本转为结构化日志
type GinLogWriter struct {
	log *CtxZapLogger
}

// NewGinLogWriter module 通常为 gin-route 或 gin-internal
func NewGinLogWriter(module string) *GinLogWriter {
	return &GinLogWriter{log: GetLogger(module)}
}

func (w *GinLogWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		w.writeLine(strings.TrimSpace(line))
	}
	return len(p), nil
}

func (w *GinLogWriter) writeLine(msg string) {
	if msg == "" {
		return
	}
	body, isDebug := strings.CutPrefix(msg, "[GIN-debug] ")
	switch {
	case isDebug && strings.HasPrefix(body, "[WARNING]"):
		w.log.Warn(strings.TrimSpace(strings.TrimPrefix(body, "[WARNING]")))
	case isDebug:
		if method, path, handler, ok := parseRoute(body); ok {
			w.log.Debug("route registered",
				zap.String("method", method),
				zap.String("path", path),
				zap.String("handler", handler))
			return
		}
		w.log.Debug(body)
	case strings.Contains(msg, "[Recovery]"), strings.Contains(msg, "panic recovered"):
		w.log.Error(msg)
	default:
		w.log.Info(msg)
	}
}

// parseRoute 解析 "GET    /api/v1/feed  --> pkg.Handler (6 handlers)"
func parseRoute(s string) (method, path, handler string, ok bool) {
	left, right, found := strings.Cut(s, "-->")
	if !found {
		return "", "", "", false
	}
	fields := strings.Fields(left)
	if len(fields) != 2 {
		return "", "", "", false
	}
	handler = strings.TrimSpace(right)
	if i := strings.Index(handler, " ("); i > 0 {
		handler = handler[:i]
	}
	return fields[0], fields[1], handler, true
}
