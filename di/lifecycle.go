package di

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
)

// Shutdown 按依赖逆序关闭容器中的服务，超时返回 ctx.Err()
func Shutdown(ctx context.Context, injector *do.RootScope, log *logger.CtxZapLogger) error {
	done := make(chan error, 1)
	go func() {
		if report := injector.Shutdown(); report != nil {
			done <- fmt.Errorf("injector shutdown: %w", report)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			log.WarnCtx(ctx, "injector shutdown reported errors", zap.Error(err))
		}
		return err
	case <-ctx.Done():
		log.WarnCtx(ctx, "injector shutdown timed out", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}
