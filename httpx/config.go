package httpx

import validation "github.com/go-ozzo/ozzo-validation/v4"

// ErrorLoggingConfig 错误日志配置
type ErrorLoggingConfig struct {
	// Enable 是否记录错误日志
	Enable bool `mapstructure:"enable" json:"enable"`

	// IgnoreHTTPStatus 不记录的 HTTP 状态码，如 [400, 404]
	IgnoreHTTPStatus []int `mapstructure:"ignore_http_status" json:"ignore_http_status"`

	// FullErrorChain 是否记录完整错误链
	FullErrorChain bool `mapstructure:"full_error_chain" json:"full_error_chain"`

	// LogLevel error / warn / info
	LogLevel string `mapstructure:"log_level" json:"log_level"`
}

// DefaultErrorLoggingConfig 默认配置：记录 5xx 与业务错误，忽略 400/404
func DefaultErrorLoggingConfig() ErrorLoggingConfig {
	return ErrorLoggingConfig{
		Enable:           true,
		IgnoreHTTPStatus: []int{400, 404},
		FullErrorChain:   true,
		LogLevel:         "warn",
	}
}

// ApplyDefaults 零值字段填充默认值
func (c *ErrorLoggingConfig) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "error"
	}
}

// Validate 校验配置
func (c ErrorLoggingConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.LogLevel, validation.In("error", "warn", "info")),
	)
}
