package retry

import "time"

type config struct {
	maxAttempts int
	backoff     BackoffStrategy
	condition   RetryCondition
	onRetry     func(attempt int, err error)
}

func defaultConfig() *config {
	return &config{
		maxAttempts: 3,
		backoff:     ExponentialBackoff(time.Second),
		condition:   AlwaysRetry(),
	}
}

// Option 重试选项
type Option func(*config)

// MaxAttempts 最大尝试次数（含首次）
func MaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// Backoff 退避策略
func Backoff(b BackoffStrategy) Option {
	return func(c *config) {
		if b != nil {
			c.backoff = b
		}
	}
}

// Condition 重试条件
func Condition(cond RetryCondition) Option {
	return func(c *config) {
		if cond != nil {
			c.condition = cond
		}
	}
}

// OnRetry 每次重试前回调（通常用于记录日志）
func OnRetry(f func(attempt int, err error)) Option {
	return func(c *config) {
		c.onRetry = f
	}
}
