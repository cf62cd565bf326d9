package event

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// UnsubscribeFunc 取消订阅
type UnsubscribeFunc func()

// Dispatcher 事件分发器
type Dispatcher struct {
	mu           sync.RWMutex
	listeners    map[string][]listenerEntry
	interceptors []Interceptor
	nextID       atomic.Uint64
	pool         *ants.Pool
	poolSize     int
	logger       *logger.CtxZapLogger
	closed       atomic.Bool
	setAllSync   bool
	wg           sync.WaitGroup
}

// NewDispatcher 创建分发器
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		listeners: make(map[string][]listenerEntry),
		poolSize:  100,
		logger:    logger.GetLogger("event"),
	}
	for _, opt := range opts {
		opt(d)
	}

	pool, err := ants.NewPool(d.poolSize)
	if err != nil {
		d.logger.Error("创建协程池失败，使用默认配置", zap.Error(err))
		pool, _ = ants.NewPool(100)
	}
	d.pool = pool
	return d
}

// Subscribe 订阅事件，返回取消函数
func (d *Dispatcher) Subscribe(eventName string, listener Listener, opts ...SubscribeOption) UnsubscribeFunc {
	if eventName == "" || listener == nil {
		return func() {}
	}

	entry := listenerEntry{id: d.nextID.Add(1), listener: listener}
	for _, opt := range opts {
		opt(&entry)
	}
	if d.setAllSync {
		entry.async = false
	}

	d.mu.Lock()
	list := append(d.listeners[eventName], entry)
	sort.SliceStable(list, func(i, j int) bool { return list[i].priority < list[j].priority })
	d.listeners[eventName] = list
	d.mu.Unlock()

	return func() { d.unsubscribe(eventName, entry.id) }
}

func (d *Dispatcher) unsubscribe(eventName string, ids ...uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventName] = slices.DeleteFunc(slices.Clone(d.listeners[eventName]), func(e listenerEntry) bool {
		return slices.Contains(ids, e.id)
	})
}

// Use 注册全局拦截器
func (d *Dispatcher) Use(interceptor Interceptor) {
	d.mu.Lock()
	d.interceptors = append(d.interceptors, interceptor)
	d.mu.Unlock()
}

// Dispatch 分发事件，默认同步执行
func (d *Dispatcher) Dispatch(ctx context.Context, event Event, opts ...DispatchOption) error {
	if event == nil {
		return nil
	}
	if d.closed.Load() {
		return ErrDispatcherClosed
	}

	var options dispatchOptions
	for _, opt := range opts {
		opt(&options)
	}
	if options.async && !d.setAllSync {
		d.dispatchAsync(ctx, event)
		return nil
	}
	return d.dispatchSync(ctx, event)
}

// DispatchAsync 等价于 Dispatch(ctx, event, WithDispatchAsync())
func (d *Dispatcher) DispatchAsync(ctx context.Context, event Event) {
	_ = d.Dispatch(ctx, event, WithDispatchAsync())
}

func (d *Dispatcher) dispatchSync(ctx context.Context, event Event) error {
	d.mu.RLock()
	interceptors := slices.Clone(d.interceptors)
	entries := slices.Clone(d.listeners[event.Name()])
	d.mu.RUnlock()

	handler := Next(func(ctx context.Context, event Event) error {
		return d.executeListeners(ctx, event, entries)
	})
	for i := len(interceptors) - 1; i >= 0; i-- {
		interceptor, next := interceptors[i], handler
		handler = func(ctx context.Context, event Event) error {
			return interceptor(ctx, event, next)
		}
	}

	err := handler(ctx, event)
	d.cleanupOnce(event.Name(), entries)

	if errors.Is(err, ErrStopPropagation) {
		return nil
	}
	return err
}

// dispatchAsync 保留 ctx 中的值（trace），脱离调用方的取消
func (d *Dispatcher) dispatchAsync(ctx context.Context, event Event) {
	asyncCtx := context.WithoutCancel(ctx)
	d.submit(asyncCtx, event.Name(), func() error {
		return d.dispatchSync(asyncCtx, event)
	})
}

func (d *Dispatcher) executeListeners(ctx context.Context, event Event, entries []listenerEntry) error {
	for _, entry := range entries {
		if entry.async {
			listener := entry.listener
			asyncCtx := context.WithoutCancel(ctx)
			d.submit(asyncCtx, event.Name(), func() error {
				return listener.Handle(asyncCtx, event)
			})
			continue
		}
		if err := entry.listener.Handle(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) submit(ctx context.Context, eventName string, fn func() error) {
	d.wg.Add(1)
	err := d.pool.Submit(func() {
		defer d.wg.Done()
		if err := fn(); err != nil && !errors.Is(err, ErrStopPropagation) {
			d.logger.ErrorCtx(ctx, "异步事件处理失败", zap.String("event", eventName), zap.Error(err))
		}
	})
	if err != nil {
		d.wg.Done()
		d.logger.ErrorCtx(ctx, "提交异步任务失败", zap.String("event", eventName), zap.Error(err))
	}
}

func (d *Dispatcher) cleanupOnce(eventName string, executed []listenerEntry) {
	var ids []uint64
	for _, e := range executed {
		if e.once {
			ids = append(ids, e.id)
		}
	}
	if len(ids) > 0 {
		d.unsubscribe(eventName, ids...)
	}
}

// Wait 等待已提交的异步任务完成
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close 等待异步任务后释放协程池
func (d *Dispatcher) Close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	d.wg.Wait()
	d.pool.Release()
}

// Shutdown 实现 do.Shutdowner
func (d *Dispatcher) Shutdown() error {
	d.Close()
	return nil
}

// ListenerCount 指定事件的监听器数量
func (d *Dispatcher) ListenerCount(eventName string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[eventName])
}
