package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/KOMKZ/go-yogan-feed/retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLoggerFactory 按实例配置创建 GORM Logger
type GormLoggerFactory func(cfg Config) gormlogger.Interface

// NewGormLoggerFactory 基于 logger.GormLogger 的默认工厂
func NewGormLoggerFactory(log *logger.CtxZapLogger) GormLoggerFactory {
	return func(cfg Config) gormlogger.Interface {
		if !cfg.EnableLog {
			return gormlogger.Default.LogMode(gormlogger.Silent)
		}
		lc := logger.DefaultGormLoggerConfig()
		lc.SlowThreshold = cfg.SlowThreshold
		lc.EnableAudit = cfg.EnableAudit
		if cfg.EnableAudit {
			lc.LogLevel = gormlogger.Info
		}
		return logger.NewGormLogger(lc, log)
	}
}

// Manager 按名称持有 gorm 实例（feedsvc 默认只有 main）
type Manager struct {
	mu        sync.RWMutex
	instances map[string]*instance
	newLogger GormLoggerFactory
	logger    *logger.CtxZapLogger
}

type instance struct {
	cfg Config
	db  *gorm.DB
}

// NewManager 按名称顺序打开所有实例，任一失败时关闭已打开的实例
// 时间统一使用 UTC，保证 sqlite 的字符串比较与其他驱动一致
func NewManager(configs map[string]Config, loggerFactory GormLoggerFactory, log *logger.CtxZapLogger) (*Manager, error) {
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	m := &Manager{
		instances: make(map[string]*instance, len(configs)),
		newLogger: loggerFactory,
		logger:    log,
	}

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cfg := configs[name]
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("invalid config for %s: %w", name, err)
		}
		db, err := m.connect(name, cfg)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("failed to open database %s: %w", name, err)
		}
		m.instances[name] = &instance{cfg: cfg, db: db}
		m.logger.Debug("Database connection successful", zap.String("name", name), zap.String("driver", cfg.Driver))
	}
	return m, nil
}

// connect 打开实例，失败按指数退避重试（数据库可能晚于服务启动）
func (m *Manager) connect(name string, cfg Config) (*gorm.DB, error) {
	return retry.DoWithData(context.Background(), func() (*gorm.DB, error) {
		return m.open(cfg)
	},
		retry.MaxAttempts(cfg.ConnectAttempts),
		retry.Backoff(retry.ExponentialBackoff(cfg.ConnectBackoff, retry.WithMaxDelay(10*time.Second))),
		retry.Condition(retry.SkipOn(errUnsupportedDriver)),
		retry.OnRetry(func(attempt int, err error) {
			m.logger.Warn("Database connection failed, retrying",
				zap.String("name", name),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}),
	)
}

func dialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedDriver, cfg.Driver)
	}
}

func (m *Manager) open(cfg Config) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	gl := gormlogger.Default.LogMode(gormlogger.Silent)
	if m.newLogger != nil {
		gl = m.newLogger(cfg)
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger:  gl,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}
	if cfg.EnableTrace {
		plugin := NewOtelPlugin(nil).WithTraceSQL(cfg.TraceSQL).WithSQLMaxLen(cfg.TraceSQLMaxLen)
		if err := db.Use(plugin); err != nil {
			return nil, fmt.Errorf("failed to use otel plugin: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// DB 获取实例，不存在时返回 nil
func (m *Manager) DB(name string) *gorm.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if inst, ok := m.instances[name]; ok {
		return inst.db
	}
	return nil
}

// GetDBNames 所有实例名（有序）
func (m *Manager) GetDBNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.instances))
	for name := range m.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// each 在读锁内按名称顺序遍历底层 *sql.DB
func (m *Manager) each(fn func(name string, sqlDB *sql.DB) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.instances))
	for name := range m.instances {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		sqlDB, err := m.instances[name].db.DB()
		if err == nil {
			err = fn(name, sqlDB)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Ping 检查所有实例，返回每个失败实例的错误
func (m *Manager) Ping(ctx context.Context) error {
	return m.each(func(_ string, sqlDB *sql.DB) error {
		return sqlDB.PingContext(ctx)
	})
}

// Stats 连接池统计
func (m *Manager) Stats() map[string]sql.DBStats {
	out := make(map[string]sql.DBStats)
	_ = m.each(func(name string, sqlDB *sql.DB) error {
		out[name] = sqlDB.Stats()
		return nil
	})
	return out
}

// RegisterPoolMetrics 以可观测 Gauge 上报连接池状态
func (m *Manager) RegisterPoolMetrics(meter metric.Meter) error {
	open, err := meter.Int64ObservableGauge("db.pool.open_connections", metric.WithDescription("Open connections"))
	if err != nil {
		return err
	}
	inUse, err := meter.Int64ObservableGauge("db.pool.in_use", metric.WithDescription("Connections in use"))
	if err != nil {
		return err
	}
	waits, err := meter.Int64ObservableCounter("db.pool.wait_count", metric.WithDescription("Total waits for a connection"))
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for name, st := range m.Stats() {
			attrs := metric.WithAttributes(attribute.String("db.name", name))
			o.ObserveInt64(open, int64(st.OpenConnections), attrs)
			o.ObserveInt64(inUse, int64(st.InUse), attrs)
			o.ObserveInt64(waits, st.WaitCount, attrs)
		}
		return nil
	}, open, inUse, waits)
	return err
}

// Close 关闭所有连接
func (m *Manager) Close() error {
	err := m.each(func(name string, sqlDB *sql.DB) error {
		if err := sqlDB.Close(); err != nil {
			return err
		}
		m.logger.Debug("Database connection closed", zap.String("name", name))
		return nil
	})
	if err != nil {
		m.logger.Error("Failed to close database connections", zap.Error(err))
	}

	m.mu.Lock()
	m.instances = make(map[string]*instance)
	m.mu.Unlock()
	return nil
}

// Shutdown 实现 do.Shutdowner
func (m *Manager) Shutdown() error {
	return m.Close()
}
