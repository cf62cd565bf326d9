package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics 请求数、耗时、并发数与响应大小
//
// 维度：method、route（路由模板）、status_class、audience（viewer / anonymous）。
type HTTPMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
	respSize metric.Int64Histogram
}

func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	var m HTTPMetrics
	var err, e error

	m.requests, e = meter.Int64Counter("http_requests_total",
		metric.WithDescription("HTTP 请求总数"), metric.WithUnit("{request}"))
	err = errors.Join(err, e)
	m.duration, e = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP 请求耗时"), metric.WithUnit("s"))
	err = errors.Join(err, e)
	m.inFlight, e = meter.Int64UpDownCounter("http_requests_in_flight",
		metric.WithDescription("处理中的请求数"), metric.WithUnit("{request}"))
	err = errors.Join(err, e)
	m.respSize, e = meter.Int64Histogram("http_response_size_bytes",
		metric.WithDescription("响应体大小"), metric.WithUnit("By"))
	err = errors.Join(err, e)

	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Handler 放在 Viewer 之后，audience 维度才有效
func (m *HTTPMetrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		m.inFlight.Add(ctx, 1)
		defer m.inFlight.Add(ctx, -1)

		c.Next()

		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", routeOf(c)),
			attribute.String("status_class", statusClass(c.Writer.Status())),
			attribute.String("audience", audience(c)),
		)
		m.requests.Add(ctx, 1, attrs)
		m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		if size := c.Writer.Size(); size > 0 {
			m.respSize.Record(ctx, int64(size), attrs)
		}
	}
}

// routeOf 路由模板而非实际路径，避免 /posts/:id 产生高基数
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

func audience(c *gin.Context) string {
	if ViewerID(c) > 0 {
		return "viewer"
	}
	return "anonymous"
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return string(rune('0'+status/100)) + "xx"
}
