package cache

import (
	"context"
	"sort"

	"github.com/KOMKZ/go-yogan-feed/event"
	"github.com/KOMKZ/go-yogan-feed/logger"
	"go.uber.org/zap"
)

// KeyedEvent 事件携带需要精确删除的 key（如单条帖子）
type KeyedEvent interface {
	CacheKeys() []string
}

// Invalidator 订阅变更事件，按规则失效资源
// 事件在持久化提交之后才会分发，所以这里执行时数据已经落库
type Invalidator struct {
	store  *TieredStore
	rules  map[string][]string
	logger *logger.CtxZapLogger
	unsubs []event.UnsubscribeFunc
}

func NewInvalidator(store *TieredStore, rules map[string][]string, log *logger.CtxZapLogger) *Invalidator {
	if rules == nil {
		rules = DefaultInvalidationRules()
	}
	if log == nil {
		log = logger.GetLogger("cache")
	}
	return &Invalidator{store: store, rules: rules, logger: log}
}

// Register 订阅所有规则涉及的事件（同步执行，高优先级）
func (inv *Invalidator) Register(d *event.Dispatcher) {
	names := make([]string, 0, len(inv.rules))
	for name := range inv.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		inv.unsubs = append(inv.unsubs, d.Subscribe(name, event.ListenerFunc(inv.Handle), event.WithPriority(-100)))
	}
	inv.logger.Debug("cache invalidation rules registered", zap.Strings("events", names))
}

// Handle 执行失效，始终返回 nil，后续监听器照常执行
func (inv *Invalidator) Handle(ctx context.Context, e event.Event) error {
	if keyed, ok := e.(KeyedEvent); ok {
		for _, key := range keyed.CacheKeys() {
			inv.store.Invalidate(ctx, key)
		}
	}
	resources := inv.rules[e.Name()]
	inv.store.InvalidateResources(ctx, resources...)
	inv.logger.DebugCtx(ctx, "cache invalidated by event",
		zap.String("event", e.Name()),
		zap.Strings("resources", resources))
	return nil
}

// Close 取消所有订阅
func (inv *Invalidator) Close() {
	for _, unsub := range inv.unsubs {
		unsub()
	}
	inv.unsubs = nil
}
