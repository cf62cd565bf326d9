// Package retry 带退避的重试（用于启动期连接外部依赖）
package retry

import (
	"context"
	"time"
)

// Do 执行操作，失败按退避策略重试，全部失败时返回 *Error
func Do(ctx context.Context, operation func() error, opts ...Option) error {
	_, err := DoWithData(ctx, func() (struct{}, error) {
		return struct{}{}, operation()
	}, opts...)
	return err
}

// DoWithData 带返回值的版本
func DoWithData[T any](ctx context.Context, operation func() (T, error), opts ...Option) (T, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	var zero T
	var errs []error
	attempts := 0
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		attempts++
		result, err := operation()
		if err == nil {
			return result, nil
		}
		errs = append(errs, err)

		if attempt == cfg.maxAttempts || !cfg.condition.ShouldRetry(err, attempt) {
			break
		}
		if cfg.onRetry != nil {
			cfg.onRetry(attempt, err)
		}

		delay := cfg.backoff.Next(attempt)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
			errs = append(errs, context.DeadlineExceeded)
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
	}
	return zero, &Error{Errors: errs, Attempts: attempts}
}
