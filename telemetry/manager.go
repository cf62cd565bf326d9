// Package telemetry 管理 OpenTelemetry 的 TracerProvider 与 MeterProvider
//
// 未启用时 Tracer/Meter 返回 noop 实现，调用方无需判断。
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/KOMKZ/go-yogan-feed/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Manager 遥测管理器
type Manager struct {
	config         Config
	logger         *logger.CtxZapLogger
	writer         io.Writer
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	mu             sync.RWMutex
}

// Option 管理器选项
type Option func(*Manager)

// WithWriter stdout 导出器的输出目标
func WithWriter(w io.Writer) Option {
	return func(m *Manager) {
		if w != nil {
			m.writer = w
		}
	}
}

// NewManager 创建遥测管理器
func NewManager(cfg Config, log *logger.CtxZapLogger, opts ...Option) *Manager {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetLogger("telemetry")
	}
	m := &Manager{config: cfg, logger: log, writer: os.Stdout}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start 创建 provider 并设置为全局
func (m *Manager) Start(ctx context.Context) error {
	if !m.config.Enabled {
		m.logger.InfoCtx(ctx, "telemetry disabled, skipping initialization")
		return nil
	}
	if err := m.config.Validate(); err != nil {
		return fmt.Errorf("invalid telemetry config: %w", err)
	}

	res, err := m.createResource(ctx)
	if err != nil {
		return fmt.Errorf("create resource failed: %w", err)
	}
	tp, err := m.createTracerProvider(ctx, res)
	if err != nil {
		return err
	}
	mp, err := m.createMeterProvider(ctx, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return err
	}

	m.mu.Lock()
	m.tracerProvider = tp
	m.meterProvider = mp
	m.mu.Unlock()

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	m.logger.InfoCtx(ctx, "telemetry started",
		zap.String("service_name", m.config.ServiceName),
		zap.String("exporter", m.config.Exporter.Type),
		zap.Bool("metrics", m.config.Metrics.Enabled),
	)
	return nil
}

// Shutdown 刷新并关闭 provider
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	tp, mp := m.tracerProvider, m.meterProvider
	m.tracerProvider, m.meterProvider = nil, nil
	m.mu.Unlock()

	var errs []error
	if tp != nil {
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
		}
	}
	if mp != nil {
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// TracerProvider 未启动时返回 noop
func (m *Manager) TracerProvider() oteltrace.TracerProvider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tracerProvider == nil {
		return tracenoop.NewTracerProvider()
	}
	return m.tracerProvider
}

// Tracer 获取 tracer
func (m *Manager) Tracer(name string) oteltrace.Tracer {
	return m.TracerProvider().Tracer(name)
}

// Meter 获取 meter，未启动时返回 noop
func (m *Manager) Meter(name string) metric.Meter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.meterProvider == nil {
		return metricnoop.NewMeterProvider().Meter(name)
	}
	return m.meterProvider.Meter(name)
}

// IsEnabled 是否启用
func (m *Manager) IsEnabled() bool {
	return m.config.Enabled
}

// Config 当前配置
func (m *Manager) Config() Config {
	return m.config
}
