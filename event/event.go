// Package event 进程内事件总线
//
// 同步分发按优先级依次调用监听器；异步分发投递到 ants 协程池，
// 监听器错误只记录日志。post 包在事务提交后发布变更事件，
// cache.Invalidator 订阅这些事件清理 feed 缓存。
package event

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrStopPropagation 监听器返回后不再调用后续监听器，Dispatch 返回 nil
	ErrStopPropagation  = errors.New("stop propagation")
	ErrDispatcherClosed = errors.New("event dispatcher closed")
)

// Event 只要求名称，如 "post.created"
type Event interface {
	Name() string
}

// BaseEvent 供具体事件嵌入
type BaseEvent struct {
	name       string
	occurredAt time.Time
}

func NewEvent(name string) BaseEvent {
	return NewEventAt(name, time.Now().UTC())
}

// NewEventAt 使用调用方时钟的时间
func NewEventAt(name string, at time.Time) BaseEvent {
	return BaseEvent{name: name, occurredAt: at}
}

func (e BaseEvent) Name() string          { return e.name }
func (e BaseEvent) OccurredAt() time.Time { return e.occurredAt }

// Listener 同步分发时返回的错误会终止本次分发
type Listener interface {
	Handle(ctx context.Context, event Event) error
}

type ListenerFunc func(ctx context.Context, event Event) error

func (f ListenerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

// Config 对应 event 配置节
type Config struct {
	PoolSize int `mapstructure:"pool_size"`
	// SetAllSync 所有事件同步分发，测试和排障时使用
	SetAllSync bool `mapstructure:"set_all_sync"`
}

func DefaultConfig() Config {
	return Config{PoolSize: 100}
}
