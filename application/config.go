package application

import (
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-feed/cache"
	"github.com/KOMKZ/go-yogan-feed/config"
	"github.com/KOMKZ/go-yogan-feed/database"
	"github.com/KOMKZ/go-yogan-feed/event"
	"github.com/KOMKZ/go-yogan-feed/feed"
	"github.com/KOMKZ/go-yogan-feed/health"
	"github.com/KOMKZ/go-yogan-feed/httpx"
	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/KOMKZ/go-yogan-feed/redis"
	"github.com/KOMKZ/go-yogan-feed/scheduler"
	"github.com/KOMKZ/go-yogan-feed/telemetry"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// AppConfig 应用完整配置
//
// 各节对应一个模块的 Config，加载后统一 ApplyDefaults + Validate。
// database / redis 为命名实例，默认实例名为 main。
type AppConfig struct {
	App        AppInfo                    `mapstructure:"app"`
	Server     ServerConfig               `mapstructure:"server"`
	Logger     logger.ManagerConfig       `mapstructure:"logger"`
	Database   map[string]database.Config `mapstructure:"database"`
	Redis      map[string]redis.Config    `mapstructure:"redis"`
	Cache      cache.Config               `mapstructure:"cache"`
	Event      event.Config               `mapstructure:"event"`
	Feed       feed.Config                `mapstructure:"feed"`
	Scheduler  scheduler.Config           `mapstructure:"scheduler"`
	Telemetry  telemetry.Config           `mapstructure:"telemetry"`
	Health     health.Config              `mapstructure:"health"`
	Httpx      httpx.ErrorLoggingConfig   `mapstructure:"httpx"`
	Middleware MiddlewareConfig           `mapstructure:"middleware"`
}

// AppInfo 应用元信息
type AppInfo struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`

	// AutoMigrate 启动时执行表结构迁移（生产环境建议用 feedsvc migrate）
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr 监听地址
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MiddlewareConfig 中间件配置
type MiddlewareConfig struct {
	TraceID    TraceIDConfig           `mapstructure:"trace_id"`
	RequestLog RequestLogConfig        `mapstructure:"request_log"`
	Metrics    MiddlewareMetricsConfig `mapstructure:"metrics"`
}

// TraceIDConfig Trace ID 中间件配置
type TraceIDConfig struct {
	Enable               bool   `mapstructure:"enable"`
	TraceIDKey           string `mapstructure:"trace_id_key"`
	TraceIDHeader        string `mapstructure:"trace_id_header"`
	EnableResponseHeader bool   `mapstructure:"enable_response_header"`
}

// RequestLogConfig 请求日志中间件配置
type RequestLogConfig struct {
	Enable        bool          `mapstructure:"enable"`
	SkipPaths     []string      `mapstructure:"skip_paths"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

// MiddlewareMetricsConfig HTTP 指标中间件配置（依赖 telemetry 的 MeterProvider）
type MiddlewareMetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DefaultAppConfig 默认配置；配置文件只需覆盖差异部分
func DefaultAppConfig() AppConfig {
	return AppConfig{
		App: AppInfo{Name: "feedsvc"},
		Server: ServerConfig{
			Port:            8080,
			Mode:            "release",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logger:    logger.DefaultManagerConfig(),
		Cache:     cache.DefaultConfig(),
		Event:     event.DefaultConfig(),
		Feed:      feed.DefaultConfig(),
		Scheduler: scheduler.DefaultConfig(),
		Telemetry: telemetry.DefaultConfig(),
		Health:    health.DefaultConfig(),
		Httpx:     httpx.DefaultErrorLoggingConfig(),
		Middleware: MiddlewareConfig{
			TraceID: TraceIDConfig{
				Enable:               true,
				EnableResponseHeader: true,
			},
			RequestLog: RequestLogConfig{
				Enable:        true,
				SkipPaths:     []string{"/healthz", "/healthz/live", "/healthz/ready"},
				SlowThreshold: time.Second,
			},
			Metrics: MiddlewareMetricsConfig{Enabled: true},
		},
	}
}

// LoadAppConfig 从 Loader 读取配置，未出现的键保留默认值
func LoadAppConfig(loader *config.Loader) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if err := loader.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults 零值字段填充默认值
func (c *AppConfig) ApplyDefaults() {
	d := DefaultAppConfig()
	if c.App.Name == "" {
		c.App.Name = d.App.Name
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.Mode == "" {
		c.Server.Mode = d.Server.Mode
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}

	// 未配置数据库时使用本地 sqlite 文件
	if len(c.Database) == 0 {
		def := database.DefaultConfig()
		def.DSN = "feedsvc.db"
		c.Database = map[string]database.Config{"main": def}
	}
	for name, dbCfg := range c.Database {
		dbCfg.ApplyDefaults()
		c.Database[name] = dbCfg
	}
	for name, redisCfg := range c.Redis {
		redisCfg.ApplyDefaults()
		c.Redis[name] = redisCfg
	}

	c.Logger.ApplyDefaults()
	if c.Logger.AppName == "" {
		c.Logger.AppName = c.App.Name
	}
	c.Cache.ApplyDefaults()
	if c.Event.PoolSize <= 0 {
		c.Event.PoolSize = d.Event.PoolSize
	}
	c.Feed.ApplyDefaults()
	c.Scheduler.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	if c.App.Version != "" && c.Telemetry.ServiceVersion == d.Telemetry.ServiceVersion {
		c.Telemetry.ServiceVersion = c.App.Version
	}
	c.Health.ApplyDefaults()
	c.Httpx.ApplyDefaults()
}

// Validate 逐节校验，错误前缀为节名
func (c AppConfig) Validate() error {
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Port, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Server.Mode, validation.In("debug", "release", "test")),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	sections := []struct {
		name string
		v    config.Validator
	}{
		{"logger", c.Logger},
		{"cache", c.Cache},
		{"feed", c.Feed},
		{"scheduler", c.Scheduler},
		{"telemetry", c.Telemetry},
		{"httpx", c.Httpx},
		{"health", c.Health},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}

	for name, dbCfg := range c.Database {
		if err := dbCfg.Validate(); err != nil {
			return fmt.Errorf("database.%s: %w", name, err)
		}
	}
	for name, redisCfg := range c.Redis {
		if err := redisCfg.Validate(); err != nil {
			return fmt.Errorf("redis.%s: %w", name, err)
		}
	}

	if c.Cache.RemoteEnabled {
		if _, ok := c.Redis[c.Cache.RedisInstance]; !ok && len(c.Redis) > 0 {
			return fmt.Errorf("cache: redis instance %q not configured", c.Cache.RedisInstance)
		}
	}
	return nil
}
