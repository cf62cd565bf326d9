package event

import "github.com/KOMKZ/go-yogan-feed/logger"

type listenerEntry struct {
	id       uint64
	listener Listener
	priority int // 越小越先执行
	async    bool
	once     bool
}

// SubscribeOption 订阅选项
type SubscribeOption func(*listenerEntry)

// WithPriority 设置优先级，默认 0，越小越先执行
func WithPriority(priority int) SubscribeOption {
	return func(e *listenerEntry) {
		e.priority = priority
	}
}

// WithAsync 监听器始终在协程池中执行，错误只记录日志
func WithAsync() SubscribeOption {
	return func(e *listenerEntry) {
		e.async = true
	}
}

// WithOnce 执行一次后自动取消订阅
func WithOnce() SubscribeOption {
	return func(e *listenerEntry) {
		e.once = true
	}
}

// DispatchOption 分发选项
type DispatchOption func(*dispatchOptions)

type dispatchOptions struct {
	async bool
}

// WithDispatchAsync 整个分发过程进入协程池
func WithDispatchAsync() DispatchOption {
	return func(o *dispatchOptions) {
		o.async = true
	}
}

// DispatcherOption Dispatcher 配置
type DispatcherOption func(*Dispatcher)

func WithPoolSize(size int) DispatcherOption {
	return func(d *Dispatcher) {
		if size > 0 {
			d.poolSize = size
		}
	}
}

func WithSetAllSync(v bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.setAllSync = v
	}
}

func WithLogger(log *logger.CtxZapLogger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.logger = log
		}
	}
}

// FromConfig 将 Config 转为选项
func FromConfig(cfg Config) []DispatcherOption {
	return []DispatcherOption{WithPoolSize(cfg.PoolSize), WithSetAllSync(cfg.SetAllSync)}
}
