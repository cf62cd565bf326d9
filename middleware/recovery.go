package middleware

import (
	"errors"
	"net"
	"os"
	"runtime/debug"
	"strings"

	"github.com/KOMKZ/go-yogan-feed/httpx"
	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery 兜底 handler panic：记录堆栈，客户端只拿到统一 500
//
// 客户端断开导致的写失败（broken pipe / connection reset）只记 Warn，不再写响应。
func Recovery(log *logger.CtxZapLogger) gin.HandlerFunc {
	if log == nil {
		log = logger.GetLogger("http")
	}
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := c.Request.Context()
			fields := []zap.Field{
				zap.Any("panic", rec),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			}
			if connectionLost(rec) {
				log.WarnCtx(ctx, "client connection lost", fields...)
				c.Abort()
				return
			}
			log.ErrorCtx(ctx, "panic recovered", append(fields,
				zap.String("client_ip", c.ClientIP()),
				zap.String("stack", string(debug.Stack())))...)
			c.Abort()
			httpx.ErrorJson(c, httpx.ErrInternal)
		}()
		c.Next()
	}
}

func connectionLost(rec any) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if !errors.As(opErr, &sysErr) {
		return false
	}
	msg := strings.ToLower(sysErr.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
