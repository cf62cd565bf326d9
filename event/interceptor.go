package event

import (
	"context"
	"errors"
	"time"

	"github.com/KOMKZ/go-yogan-feed/logger"
	"go.uber.org/zap"
)

// Next 继续执行下一个拦截器/监听器
type Next func(ctx context.Context, event Event) error

// Interceptor 事件拦截器（日志、过滤、错误处理）
type Interceptor func(ctx context.Context, event Event, next Next) error

// LoggingInterceptor 记录每次分发的耗时与结果
func LoggingInterceptor(log *logger.CtxZapLogger) Interceptor {
	return func(ctx context.Context, event Event, next Next) error {
		start := time.Now()
		err := next(ctx, event)
		fields := []zap.Field{
			zap.String("event", event.Name()),
			zap.Duration("elapsed", time.Since(start)),
		}
		if err != nil && !errors.Is(err, ErrStopPropagation) {
			log.WarnCtx(ctx, "event handling failed", append(fields, zap.Error(err))...)
			return err
		}
		log.DebugCtx(ctx, "event dispatched", fields...)
		return err
	}
}
