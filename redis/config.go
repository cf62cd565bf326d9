// Package redis 管理命名的 Redis 实例，供远端缓存层使用
package redis

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	ModeStandalone = "standalone"
	ModeCluster    = "cluster"
)

// Config Redis 实例配置
type Config struct {
	Mode string `mapstructure:"mode"`

	// Addrs 单机模式取第一个；Addr 为单地址简写
	Addrs []string `mapstructure:"addrs"`
	Addr  string   `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"` // 仅单机模式

	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// Required 启动 Ping 失败是否致命；缓存场景通常为 false，远端不可用时只用本地层
	Required bool `mapstructure:"required"`

	EnableMetrics bool `mapstructure:"enable_metrics"`
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(ModeStandalone, ModeCluster)),
		validation.Field(&c.Addrs, validation.Required),
		validation.Field(&c.DB, validation.Min(0), validation.Max(15).Error("must be between 0 and 15"),
			validation.When(c.Mode == ModeCluster, validation.In(0).Error("cluster mode only supports db 0"))),
		validation.Field(&c.PoolSize, validation.Min(0)),
		validation.Field(&c.MinIdleConns, validation.Min(0)),
	)
}

// ApplyDefaults 读延迟敏感，超时默认比 go-redis 更短
func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeStandalone
	}
	if c.Addr != "" && len(c.Addrs) == 0 {
		c.Addrs = []string{c.Addr}
	}
	setDefault(&c.PoolSize, 10)
	setDefault(&c.MinIdleConns, 2)
	setDefault(&c.MaxRetries, 1)
	setDefault(&c.DialTimeout, 2*time.Second)
	setDefault(&c.ReadTimeout, time.Second)
	setDefault(&c.WriteTimeout, time.Second)
}

func setDefault[T comparable](field *T, def T) {
	var zero T
	if *field == zero {
		*field = def
	}
}
