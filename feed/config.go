package feed

import (
	"math"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config feed 配置
type Config struct {
	DefaultLimit   int           `mapstructure:"default_limit"`
	MaxLimit       int           `mapstructure:"max_limit"`
	MaxPage        int           `mapstructure:"max_page"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // 未命中时计算的上限，与调用方取消无关
}

func DefaultConfig() Config {
	return Config{
		DefaultLimit:   20,
		MaxLimit:       100,
		MaxPage:        10000,
		RequestTimeout: 5 * time.Second,
	}
}

// ApplyDefaults 零值字段填充默认值
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = d.DefaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = d.MaxLimit
	}
	if c.MaxPage <= 0 {
		c.MaxPage = d.MaxPage
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DefaultLimit, validation.Required, validation.Min(1), validation.Max(c.MaxLimit)),
		validation.Field(&c.MaxLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxPage, validation.Required, validation.Min(1)),
		validation.Field(&c.RequestTimeout, validation.Required),
	)
}

// Normalize 规范化分页请求
//
// page < 1 取 1，超过 MaxPage 截断；limit <= 0 取默认值，超过上限截断；未知排序取 default；
// 状态与分类去空白转小写，状态为空时只看已发布内容
func (c Config) Normalize(req PageRequest) PageRequest {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = c.DefaultLimit
	}
	if req.Limit > c.MaxLimit {
		req.Limit = c.MaxLimit
	}
	// page*limit 必须落在 int 范围内，否则偏移量溢出为负数
	maxPage := math.MaxInt / req.Limit
	if c.MaxPage > 0 {
		maxPage = min(maxPage, c.MaxPage)
	}
	if req.Page > maxPage {
		req.Page = maxPage
	}
	req.Sort = ParseSort(string(req.Sort))
	req.Filters = normalizeFilters(req.Filters)
	return req
}
