// Package database 数据库连接管理与通用 Repository
package database

import (
	"fmt"
	"time"
)

// Config 数据库实例配置
type Config struct {
	Driver          string        `mapstructure:"driver"` // mysql / postgres / sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	EnableLog       bool          `mapstructure:"enable_log"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
	EnableAudit     bool          `mapstructure:"enable_audit"`

	// 启动时连接失败的重试次数（含首次）与初始退避
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	ConnectBackoff  time.Duration `mapstructure:"connect_backoff"`

	// OpenTelemetry
	EnableTrace    bool `mapstructure:"enable_trace"`
	TraceSQL       bool `mapstructure:"trace_sql"`         // 是否把 SQL 写入 Span
	TraceSQLMaxLen int  `mapstructure:"trace_sql_max_len"` // 默认 1000
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Driver:          "sqlite",
		MaxOpenConns:    50,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		EnableLog:       true,
		SlowThreshold:   200 * time.Millisecond,
		TraceSQLMaxLen:  1000,
		ConnectAttempts: 3,
		ConnectBackoff:  500 * time.Millisecond,
	}
}

// ApplyDefaults 填充默认值
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Driver == "" {
		c.Driver = d.Driver
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = d.MaxOpenConns
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = d.MaxIdleConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = d.ConnMaxLifetime
	}
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = d.SlowThreshold
	}
	if c.TraceSQLMaxLen <= 0 {
		c.TraceSQLMaxLen = d.TraceSQLMaxLen
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = d.ConnectAttempts
	}
	if c.ConnectBackoff <= 0 {
		c.ConnectBackoff = d.ConnectBackoff
	}
}

// Validate 校验配置
func (c Config) Validate() error {
	switch c.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("%w: unsupported driver %q", ErrInvalidConfig, c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("%w: dsn is required", ErrInvalidConfig)
	}
	return nil
}
