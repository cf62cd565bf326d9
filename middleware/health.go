package middleware

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-feed/health"
	"github.com/gin-gonic/gin"
)

// HealthCheckHandler 健康检查端点
type HealthCheckHandler struct {
	aggregator *health.Aggregator
}

// NewHealthCheckHandler 创建健康检查 Handler
func NewHealthCheckHandler(aggregator *health.Aggregator) *HealthCheckHandler {
	return &HealthCheckHandler{aggregator: aggregator}
}

// Handle 完整检查；degraded 仍返回 200，响应体中标识
func (h *HealthCheckHandler) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := h.aggregator.Check(c.Request.Context())
		status := http.StatusOK
		if resp.Status == health.StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}

// HandleLiveness 存活探针，不检查外部依赖
func (h *HealthCheckHandler) HandleLiveness() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	}
}

// HandleReadiness 就绪探针，与 Handle 同样容忍 degraded
func (h *HealthCheckHandler) HandleReadiness() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := h.aggregator.Check(c.Request.Context())
		status := http.StatusOK
		if resp.Status == health.StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": resp.Status})
	}
}

// RegisterHealthRoutes 注册 /healthz、/healthz/live、/healthz/ready
func RegisterHealthRoutes(router gin.IRouter, aggregator *health.Aggregator) {
	if aggregator == nil {
		return
	}
	h := NewHealthCheckHandler(aggregator)
	router.GET("/healthz", h.Handle())
	router.GET("/healthz/live", h.HandleLiveness())
	router.GET("/healthz/ready", h.HandleReadiness())
}
