package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy 退避策略，attempt 从 1 开始
type BackoffStrategy interface {
	Next(attempt int) time.Duration
}

// BackoffOption 退避选项
type BackoffOption func(*backoffConfig)

type backoffConfig struct {
	multiplier float64
	maxDelay   time.Duration
	jitter     float64
}

func defaultBackoffConfig() *backoffConfig {
	return &backoffConfig{
		multiplier: 2.0,
		maxDelay:   30 * time.Second,
		jitter:     0.2,
	}
}

// WithMultiplier 指数倍数
func WithMultiplier(m float64) BackoffOption {
	return func(c *backoffConfig) {
		if m > 0 {
			c.multiplier = m
		}
	}
}

// WithMaxDelay 单次延迟上限
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(c *backoffConfig) {
		if d > 0 {
			c.maxDelay = d
		}
	}
}

// WithJitter 抖动比例（0.0 - 1.0）
func WithJitter(ratio float64) BackoffOption {
	return func(c *backoffConfig) {
		if ratio >= 0 && ratio <= 1.0 {
			c.jitter = ratio
		}
	}
}

type exponentialBackoff struct {
	base   time.Duration
	config *backoffConfig
}

// ExponentialBackoff delay = base * multiplier^(attempt-1)，不超过 maxDelay
//
//	base=1s: 1s, 2s, 4s, 8s ...
func ExponentialBackoff(base time.Duration, opts ...BackoffOption) BackoffStrategy {
	cfg := defaultBackoffConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &exponentialBackoff{base: base, config: cfg}
}

func (b *exponentialBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(b.base) * math.Pow(b.config.multiplier, float64(attempt-1))
	if delay > float64(b.config.maxDelay) {
		delay = float64(b.config.maxDelay)
	}
	return time.Duration(applyJitter(delay, b.config.jitter))
}

type constantBackoff time.Duration

// ConstantBackoff 固定间隔，无抖动
func ConstantBackoff(delay time.Duration) BackoffStrategy {
	return constantBackoff(delay)
}

func (b constantBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return time.Duration(b)
}

// applyJitter 在 [delay*(1-jitter), delay*(1+jitter)] 内随机
func applyJitter(delay, jitter float64) float64 {
	if jitter <= 0 {
		return delay
	}
	delta := delay * jitter
	result := delay + (rand.Float64()*2-1)*delta
	if result < 0 {
		return 0
	}
	return result
}
