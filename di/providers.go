package di

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-feed/cache"
	"github.com/KOMKZ/go-yogan-feed/database"
	"github.com/KOMKZ/go-yogan-feed/event"
	"github.com/KOMKZ/go-yogan-feed/feed"
	"github.com/KOMKZ/go-yogan-feed/health"
	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/KOMKZ/go-yogan-feed/post"
	"github.com/KOMKZ/go-yogan-feed/redis"
	"github.com/KOMKZ/go-yogan-feed/scheduler"
	"github.com/KOMKZ/go-yogan-feed/telemetry"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ============================================
// 基础组件：Logger、Telemetry
// ============================================

// ProvideLoggerManager 初始化全局 logger.Manager
func ProvideLoggerManager(cfg logger.ManagerConfig) do.Provider[*logger.Manager] {
	return func(i do.Injector) (*logger.Manager, error) {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid logger config: %w", err)
		}
		return logger.InitManager(cfg), nil
	}
}

// moduleLogger 从容器的 Manager 取模块 logger，未注册时回退全局
func moduleLogger(i do.Injector, module string) *logger.CtxZapLogger {
	if mgr, err := do.Invoke[*logger.Manager](i); err == nil {
		return mgr.GetLogger(module)
	}
	return logger.GetLogger(module)
}

// ProvideTelemetry 创建并启动 telemetry.Manager（未启用时为 noop）
func ProvideTelemetry(cfg telemetry.Config) do.Provider[*telemetry.Manager] {
	return func(i do.Injector) (*telemetry.Manager, error) {
		m := telemetry.NewManager(cfg, moduleLogger(i, "telemetry"))
		if err := m.Start(context.Background()); err != nil {
			return nil, err
		}
		return m, nil
	}
}

// ============================================
// 存储：Database、Redis
// ============================================

// ProvideDatabaseManager 打开所有数据库实例
func ProvideDatabaseManager(cfgs map[string]database.Config) do.Provider[*database.Manager] {
	return func(i do.Injector) (*database.Manager, error) {
		// 先启动 telemetry，otel 插件使用全局 TracerProvider
		tel, err := do.Invoke[*telemetry.Manager](i)
		if err != nil {
			return nil, err
		}
		if len(cfgs) == 0 {
			return nil, fmt.Errorf("no database configured")
		}
		log := moduleLogger(i, "database")
		mgr, err := database.NewManager(cfgs, database.NewGormLoggerFactory(moduleLogger(i, "gorm")), log)
		if err != nil {
			return nil, err
		}
		if err := mgr.RegisterPoolMetrics(tel.Meter("feedsvc/database")); err != nil {
			log.Warn("register pool metrics failed", zap.Error(err))
		}
		return mgr, nil
	}
}

// ProvideDB 默认实例的 *gorm.DB
func ProvideDB(name string) do.Provider[*gorm.DB] {
	return func(i do.Injector) (*gorm.DB, error) {
		mgr, err := do.Invoke[*database.Manager](i)
		if err != nil {
			return nil, err
		}
		db := mgr.DB(name)
		if db == nil {
			return nil, fmt.Errorf("database connection %q not configured", name)
		}
		return db, nil
	}
}

// ProvideRedisManager 连接所有 Redis 实例；未配置时返回空 Manager
func ProvideRedisManager(cfgs map[string]redis.Config) do.Provider[*redis.Manager] {
	return func(i do.Injector) (*redis.Manager, error) {
		if _, err := do.Invoke[*telemetry.Manager](i); err != nil {
			return nil, err
		}
		return redis.NewManager(context.Background(), cfgs, moduleLogger(i, "redis"))
	}
}

// ============================================
// 缓存与事件
// ============================================

// ProvideCacheStore 组装两级缓存：本地 LRU + 可选 Redis 远端
func ProvideCacheStore(cfg cache.Config) do.Provider[*cache.TieredStore] {
	return func(i do.Injector) (*cache.TieredStore, error) {
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		log := moduleLogger(i, "cache")
		tel, err := do.Invoke[*telemetry.Manager](i)
		if err != nil {
			return nil, err
		}

		local, err := cache.NewMemoryStore(cfg.LocalMaxEntries)
		if err != nil {
			return nil, err
		}

		var remote cache.Store
		if cfg.RemoteEnabled {
			mgr, err := do.Invoke[*redis.Manager](i)
			if err != nil {
				return nil, err
			}
			if client := mgr.Client(cfg.RedisInstance); client != nil {
				remote = cache.NewRedisStore(client, cfg.KeyPrefix, cfg.RemoteTimeout, cfg.Breaker, log)
			} else {
				log.Warn("redis instance not configured, cache runs local only",
					zap.String("instance", cfg.RedisInstance))
			}
		}

		return cache.NewTieredStore(local, remote, cfg, log, cache.WithMeter(tel.Meter("feedsvc/cache")))
	}
}

// ProvideDispatcher 事件分发器
func ProvideDispatcher(cfg event.Config) do.Provider[*event.Dispatcher] {
	return func(i do.Injector) (*event.Dispatcher, error) {
		opts := append(event.FromConfig(cfg), event.WithLogger(moduleLogger(i, "event")))
		return event.NewDispatcher(opts...), nil
	}
}

// ProvideInvalidator 订阅变更事件并失效缓存
func ProvideInvalidator(cfg cache.Config) do.Provider[*cache.Invalidator] {
	return func(i do.Injector) (*cache.Invalidator, error) {
		store, err := do.Invoke[*cache.TieredStore](i)
		if err != nil {
			return nil, err
		}
		dispatcher, err := do.Invoke[*event.Dispatcher](i)
		if err != nil {
			return nil, err
		}
		inv := cache.NewInvalidator(store, cfg.Rules(), moduleLogger(i, "cache"))
		inv.Register(dispatcher)
		return inv, nil
	}
}

// ============================================
// 业务服务
// ============================================

// ProvidePostService 帖子写路径；依赖 Invalidator 保证失效监听先于任何变更注册
func ProvidePostService(i do.Injector) (*post.Service, error) {
	db, err := do.Invoke[*gorm.DB](i)
	if err != nil {
		return nil, err
	}
	store, err := do.Invoke[*cache.TieredStore](i)
	if err != nil {
		return nil, err
	}
	dispatcher, err := do.Invoke[*event.Dispatcher](i)
	if err != nil {
		return nil, err
	}
	if _, err := do.Invoke[*cache.Invalidator](i); err != nil {
		return nil, err
	}
	return post.NewService(db, store, dispatcher, moduleLogger(i, "post")), nil
}

// ProvideFeedService 读路径
func ProvideFeedService(cfg feed.Config) do.Provider[*feed.Service] {
	return func(i do.Injector) (*feed.Service, error) {
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid feed config: %w", err)
		}
		posts, err := do.Invoke[*post.Service](i)
		if err != nil {
			return nil, err
		}
		store, err := do.Invoke[*cache.TieredStore](i)
		if err != nil {
			return nil, err
		}
		return feed.NewService(posts.Repository(), store, cfg, moduleLogger(i, "feed")), nil
	}
}

// ProvideScheduler 定时任务（未启动，由应用在就绪后 Start）
func ProvideScheduler(cfg scheduler.Config) do.Provider[*scheduler.Scheduler] {
	return func(i do.Injector) (*scheduler.Scheduler, error) {
		posts, err := do.Invoke[*post.Service](i)
		if err != nil {
			return nil, err
		}
		return scheduler.New(cfg, posts, moduleLogger(i, "scheduler"))
	}
}

// ProvideHealth 健康检查：数据库为关键依赖，Redis 只影响降级状态
func ProvideHealth(cfg health.Config) do.Provider[*health.Aggregator] {
	return func(i do.Injector) (*health.Aggregator, error) {
		cfg.ApplyDefaults()
		agg := health.NewAggregator(cfg.Timeout)
		if mgr, err := do.Invoke[*database.Manager](i); err == nil {
			agg.Register(database.NewHealthChecker(mgr))
		}
		if mgr, err := do.Invoke[*redis.Manager](i); err == nil && len(mgr.Names()) > 0 {
			agg.Register(health.Optional(redis.NewHealthChecker(mgr)))
		}
		if store, err := do.Invoke[*cache.TieredStore](i); err == nil {
			agg.Register(health.Optional(cache.NewHealthChecker(store)))
		}
		return agg, nil
	}
}
