package redis

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsHook 实现 redis.Hook，记录命令耗时与错误数
type MetricsHook struct {
	instance string
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewMetricsHook 创建命令指标 Hook
func NewMetricsHook(meter metric.Meter, instance string) (*MetricsHook, error) {
	duration, err := meter.Float64Histogram("redis.command.duration",
		metric.WithDescription("Redis command duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	errCounter, err := meter.Int64Counter("redis.command.errors",
		metric.WithDescription("Redis command errors, excluding nil replies"))
	if err != nil {
		return nil, err
	}
	return &MetricsHook{instance: instance, duration: duration, errors: errCounter}, nil
}

func (h *MetricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *MetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.record(ctx, cmd.Name(), time.Since(start), err)
		return err
	}
}

func (h *MetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		if len(cmds) == 0 {
			return err
		}
		per := time.Since(start) / time.Duration(len(cmds))
		for _, cmd := range cmds {
			h.record(ctx, cmd.Name(), per, cmd.Err())
		}
		return err
	}
}

func (h *MetricsHook) record(ctx context.Context, command string, d time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("instance", h.instance),
		attribute.String("command", command),
	)
	h.duration.Record(ctx, float64(d.Microseconds())/1000, attrs)
	if err != nil && !errors.Is(err, redis.Nil) {
		h.errors.Add(ctx, 1, attrs)
	}
}
