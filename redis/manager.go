package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// Manager 按名称持有 Redis 客户端，单机和集群统一为 UniversalClient
type Manager struct {
	mu      sync.RWMutex
	clients map[string]redis.UniversalClient
	logger  *logger.CtxZapLogger
}

// NewManager 按名称顺序连接所有实例
//
// Required 实例 Ping 失败直接返回错误；其余实例只告警，客户端照常保留，
// 后续命令由 go-redis 自行重连。
func NewManager(ctx context.Context, configs map[string]Config, log *logger.CtxZapLogger) (*Manager, error) {
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	m := &Manager{clients: make(map[string]redis.UniversalClient, len(configs)), logger: log}

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		client, err := m.connect(ctx, name, configs[name])
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("redis %s: %w", name, err)
		}
		m.clients[name] = client
	}
	return m, nil
}

func (m *Manager) connect(ctx context.Context, name string, cfg Config) (redis.UniversalClient, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := newClient(cfg)
	if cfg.EnableMetrics {
		hook, err := NewMetricsHook(otel.Meter("feedsvc/redis"), name)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("metrics hook: %w", err)
		}
		client.AddHook(hook)
	}

	fields := []zap.Field{zap.String("name", name), zap.String("mode", cfg.Mode), zap.Strings("addrs", cfg.Addrs)}
	if err := client.Ping(ctx).Err(); err != nil {
		if cfg.Required {
			_ = client.Close()
			return nil, fmt.Errorf("ping: %w", err)
		}
		m.logger.WarnCtx(ctx, "Redis unreachable at startup, continuing", append(fields, zap.Error(err))...)
		return client, nil
	}
	m.logger.DebugCtx(ctx, "Redis connected", fields...)
	return client, nil
}

func newClient(cfg Config) redis.UniversalClient {
	opts := &redis.UniversalOptions{
		Addrs:        cfg.Addrs,
		Password:     cfg.Password,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if cfg.Mode == ModeCluster {
		return redis.NewClusterClient(opts.Cluster())
	}
	opts.DB = cfg.DB
	return redis.NewClient(opts.Simple())
}

// Client 按名称取客户端，未配置返回 nil
func (m *Manager) Client(name string) redis.UniversalClient {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clients[name]
}

// Names 已配置的实例名（有序）
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Ping 检查全部实例，失败的实例合并返回
func (m *Manager) Ping(ctx context.Context) error {
	var errs []error
	for _, name := range m.Names() {
		if err := m.Client(name).Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Close 关闭全部连接，可重复调用
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for name, client := range m.clients {
		if err := client.Close(); err != nil {
			m.logger.Error("failed to close Redis connection", zap.String("name", name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	clear(m.clients)
	return errors.Join(errs...)
}

// Shutdown 供 samber/do 在容器关闭时调用
func (m *Manager) Shutdown() error {
	return m.Close()
}
