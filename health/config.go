package health

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config 对应 health 配置节；关闭后不注册 /healthz 路由
type Config struct {
	Enabled bool `mapstructure:"enabled"`
	// Timeout 单次聚合检查的总超时，各 Checker 共享
	Timeout time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() Config {
	return Config{Enabled: true, Timeout: 5 * time.Second}
}

func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultConfig().Timeout
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Min(100*time.Millisecond), validation.Max(time.Minute)),
	)
}
