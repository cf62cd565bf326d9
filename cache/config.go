package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config 缓存配置
type Config struct {
	// RemoteEnabled 关闭时只使用本地层
	RemoteEnabled bool `mapstructure:"remote_enabled"`

	// RedisInstance redis.Manager 中的实例名
	RedisInstance string `mapstructure:"redis_instance"`

	// KeyPrefix 远端 key 前缀
	KeyPrefix string `mapstructure:"key_prefix"`

	// RemoteTimeout 单次远端操作超时，超时即降级
	RemoteTimeout time.Duration `mapstructure:"remote_timeout"`

	// LocalMaxEntries 本地层容量
	LocalMaxEntries int `mapstructure:"local_max_entries"`

	// LocalTTLCap 有远端时本地副本的 TTL 上限（回填和 Set 都适用），0 表示不设上限
	LocalTTLCap time.Duration `mapstructure:"local_ttl_cap"`

	Breaker BreakerConfig `mapstructure:"breaker"`

	// TTLs 按资源覆盖默认 TTL，如 feed:general: 60s
	TTLs map[string]time.Duration `mapstructure:"ttls"`

	// InvalidationRules 按事件名覆盖默认失效规则
	InvalidationRules []InvalidationRule `mapstructure:"invalidation_rules"`
}

// InvalidationRule 事件触发的资源失效
type InvalidationRule struct {
	Event     string   `mapstructure:"event"`
	Resources []string `mapstructure:"resources"`
}

// Validate 校验规则
func (r InvalidationRule) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Event, validation.Required),
		validation.Field(&r.Resources, validation.Each(validation.In(toAny(FeedResources)...).Error("unknown resource"))),
	)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		RemoteEnabled:   true,
		RedisInstance:   "main",
		KeyPrefix:       "feedsvc:",
		RemoteTimeout:   100 * time.Millisecond,
		LocalMaxEntries: 10000,
		LocalTTLCap:     60 * time.Second,
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			OpenTimeout:      10 * time.Second,
			HalfOpenRequests: 1,
		},
	}
}

// ApplyDefaults 零值字段填充默认值
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.RedisInstance == "" {
		c.RedisInstance = d.RedisInstance
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = d.KeyPrefix
	}
	if c.RemoteTimeout <= 0 {
		c.RemoteTimeout = d.RemoteTimeout
	}
	if c.LocalMaxEntries <= 0 {
		c.LocalMaxEntries = d.LocalMaxEntries
	}
	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = d.Breaker.FailureThreshold
	}
	if c.Breaker.OpenTimeout <= 0 {
		c.Breaker.OpenTimeout = d.Breaker.OpenTimeout
	}
	if c.Breaker.HalfOpenRequests == 0 {
		c.Breaker.HalfOpenRequests = d.Breaker.HalfOpenRequests
	}
}

// Validate 校验配置
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.KeyPrefix, validation.Required),
		validation.Field(&c.RemoteTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.LocalMaxEntries, validation.Required, validation.Min(1)),
		validation.Field(&c.LocalTTLCap, validation.Min(time.Duration(0))),
		validation.Field(&c.TTLs, validation.Each(validation.Min(time.Second))),
		validation.Field(&c.InvalidationRules),
	)
	if err != nil {
		return ErrConfigInvalid.Wrap(err)
	}
	return nil
}

// TTLFor 资源 TTL（配置覆盖优先）
func (c Config) TTLFor(ks KeySpec) time.Duration {
	if ttl, ok := c.TTLs[ks.Resource]; ok && ttl > 0 {
		return ttl
	}
	return ks.TTL
}

// Rules 失效规则，配置项按事件名覆盖默认值
func (c Config) Rules() map[string][]string {
	rules := DefaultInvalidationRules()
	for _, r := range c.InvalidationRules {
		rules[r.Event] = r.Resources
	}
	return rules
}
