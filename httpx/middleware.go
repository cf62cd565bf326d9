package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const errorLogPolicyKey = "httpx:error_log_policy"

// errorLogPolicy 预处理后的错误日志策略
type errorLogPolicy struct {
	enable    bool
	ignore    map[int]struct{}
	fullChain bool
	level     string
}

// levelFor 5xx 一律按 error 记录，其余使用配置的级别
func (p errorLogPolicy) levelFor(status int) string {
	if status >= http.StatusInternalServerError {
		return "error"
	}
	return p.level
}

func (p errorLogPolicy) shouldLog(status int) bool {
	if !p.enable {
		return false
	}
	_, skip := p.ignore[status]
	return !skip
}

// ErrorLoggingMiddleware 挂载后 HandleError 才会记录日志
func ErrorLoggingMiddleware(cfg ErrorLoggingConfig) gin.HandlerFunc {
	policy := errorLogPolicy{
		enable:    cfg.Enable,
		ignore:    make(map[int]struct{}, len(cfg.IgnoreHTTPStatus)),
		fullChain: cfg.FullErrorChain,
		level:     cfg.LogLevel,
	}
	for _, status := range cfg.IgnoreHTTPStatus {
		policy.ignore[status] = struct{}{}
	}

	return func(c *gin.Context) {
		c.Set(errorLogPolicyKey, policy)
		c.Next()
	}
}

func policyFrom(c *gin.Context) errorLogPolicy {
	if v, ok := c.Get(errorLogPolicyKey); ok {
		if p, ok := v.(errorLogPolicy); ok {
			return p
		}
	}
	return errorLogPolicy{level: "error"}
}
