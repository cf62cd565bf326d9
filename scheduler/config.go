package scheduler

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config 调度配置
type Config struct {
	Enabled bool `mapstructure:"enabled"`

	// FeaturedExpiryInterval 精选过期清理间隔
	FeaturedExpiryInterval time.Duration `mapstructure:"featured_expiry_interval"`

	// JobTimeout 单次任务超时
	JobTimeout time.Duration `mapstructure:"job_timeout"`

	// StopTimeout 关闭时等待运行中任务的时间
	StopTimeout time.Duration `mapstructure:"stop_timeout"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:                true,
		FeaturedExpiryInterval: time.Minute,
		JobTimeout:             30 * time.Second,
		StopTimeout:            10 * time.Second,
	}
}

// ApplyDefaults 零值字段填充默认值
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.FeaturedExpiryInterval <= 0 {
		c.FeaturedExpiryInterval = d.FeaturedExpiryInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = d.JobTimeout
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = d.StopTimeout
	}
}

// Validate 校验配置
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.FeaturedExpiryInterval, validation.Min(10*time.Millisecond)),
		validation.Field(&c.JobTimeout, validation.Min(time.Millisecond)),
	)
}
