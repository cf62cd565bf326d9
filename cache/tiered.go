package cache

import (
	"context"
	"errors"
	"time"

	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// fallbackLocalTTL 远端未返回有效剩余 TTL 时本地回填使用
const fallbackLocalTTL = 30 * time.Second

// TieredStore 对外的缓存入口
//
// Get 先查远端：命中则回填本地；远端确认不存在则同时删除本地副本（其他实例的失效在此生效）；
// 远端不可达时只读本地。Set 总是写本地，远端写失败只记录日志。
// 所有公开方法都不会把缓存层错误抛给调用方。
type TieredStore struct {
	local       Store
	remote      Store
	codec       Codec
	cfg         Config
	localTTLCap time.Duration
	logger      *logger.CtxZapLogger
	stats       *counters
}

// Option TieredStore 选项
type Option func(*tieredOptions)

type tieredOptions struct {
	codec Codec
	meter metric.Meter
}

func WithCodec(c Codec) Option {
	return func(o *tieredOptions) { o.codec = c }
}

func WithMeter(m metric.Meter) Option {
	return func(o *tieredOptions) { o.meter = m }
}

// NewTieredStore remote 为 nil 时退化为纯本地缓存
func NewTieredStore(local, remote Store, cfg Config, log *logger.CtxZapLogger, opts ...Option) (*TieredStore, error) {
	if local == nil {
		return nil, ErrConfigInvalid.WithMsg("local store is required")
	}
	if log == nil {
		log = logger.GetLogger("cache")
	}
	o := tieredOptions{codec: JSONCodec{}, meter: otel.Meter("feedsvc/cache")}
	for _, opt := range opts {
		opt(&o)
	}
	stats, err := newCounters(o.meter)
	if err != nil {
		return nil, ErrConfigInvalid.Wrap(err)
	}
	return &TieredStore{
		local:       local,
		remote:      remote,
		codec:       o.codec,
		cfg:         cfg,
		localTTLCap: cfg.LocalTTLCap,
		logger:      log,
		stats:       stats,
	}, nil
}

// TTL 资源的有效 TTL（含配置覆盖）
func (s *TieredStore) TTL(ks KeySpec) time.Duration {
	return s.cfg.TTLFor(ks)
}

// Get 返回未过期的值；任何缓存层错误都视为未命中
//
// 远端命中时回填本地；远端未命中或不可用时继续查本地，两层都没有才算未命中。
// 远端写失败后本地副本仍可服务本进程，跨实例的陈旧窗口由 LocalTTLCap 限定。
func (s *TieredStore) Get(ctx context.Context, key string) ([]byte, bool) {
	if s.remote != nil {
		value, ttl, err := s.remote.Get(context.WithoutCancel(ctx), key)
		switch {
		case err == nil:
			_ = s.local.Set(ctx, key, value, s.backfillTTL(ttl))
			s.stats.hit(ctx, "remote")
			return value, true
		case errors.Is(err, ErrCacheMiss):
		default:
			s.remoteFailed(ctx, "get", key, err)
		}
	}

	value, _, err := s.local.Get(ctx, key)
	if err != nil {
		s.stats.miss(ctx)
		return nil, false
	}
	s.stats.hit(ctx, "local")
	return value, true
}

// Set 先写本地，再在远端超时内同步写远端；远端失败只记录日志，不影响调用方。ttl<=0 不缓存
//
// 配置了远端时本地副本的 TTL 不超过 LocalTTLCap。
func (s *TieredStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		s.logger.DebugCtx(ctx, "skip caching entry without ttl", zap.String("key", key))
		return
	}
	if s.remote == nil {
		_ = s.local.Set(ctx, key, value, ttl)
		return
	}
	_ = s.local.Set(ctx, key, value, s.backfillTTL(ttl))
	if err := s.remote.Set(context.WithoutCancel(ctx), key, value, ttl); err != nil {
		s.remoteFailed(ctx, "set", key, err)
	}
}

// GetValue 读取并解码到 dest；数据损坏时删除该条目并按未命中处理
func (s *TieredStore) GetValue(ctx context.Context, key string, dest any) bool {
	data, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	if err := s.codec.Unmarshal(data, dest); err != nil {
		s.stats.malformed.Add(1)
		s.logger.WarnCtx(ctx, "malformed cache entry dropped",
			zap.String("key", key),
			zap.String("codec", s.codec.Name()),
			zap.Error(err))
		s.Invalidate(ctx, key)
		return false
	}
	return true
}

// SetValue 编码后写入；编码失败只记录日志
func (s *TieredStore) SetValue(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := s.codec.Marshal(v)
	if err != nil {
		s.logger.ErrorCtx(ctx, "cache value encode failed", zap.String("key", key), zap.Error(ErrSerialize.Wrap(err)))
		return
	}
	s.Set(ctx, key, data, ttl)
}

// Invalidate 精确删除单个 key
func (s *TieredStore) Invalidate(ctx context.Context, key string) {
	_ = s.local.Delete(ctx, key)
	if s.remote != nil {
		if err := s.remote.Delete(context.WithoutCancel(ctx), key); err != nil {
			s.remoteFailed(ctx, "delete", key, err)
		}
	}
	s.stats.invalidated(ctx, "key")
}

// InvalidatePattern 删除两层中 key 含 pattern 的所有条目，幂等
func (s *TieredStore) InvalidatePattern(ctx context.Context, pattern string) {
	if pattern == "" {
		s.logger.WarnCtx(ctx, "empty invalidation pattern ignored")
		return
	}
	_ = s.local.DeleteByPattern(ctx, pattern)
	if s.remote != nil {
		if err := s.remote.DeleteByPattern(context.WithoutCancel(ctx), pattern); err != nil {
			s.remoteFailed(ctx, "delete_pattern", pattern, err)
		}
	}
	s.stats.invalidated(ctx, "pattern")
	s.logger.DebugCtx(ctx, "cache pattern invalidated", zap.String("pattern", pattern))
}

// InvalidateResources 依次失效多个资源
func (s *TieredStore) InvalidateResources(ctx context.Context, resources ...string) {
	for _, r := range resources {
		s.InvalidatePattern(ctx, BuildPattern(r))
	}
}

// ClearAll 清空两层（运维用途，不在请求路径上调用）
func (s *TieredStore) ClearAll(ctx context.Context) error {
	_ = s.local.Clear(ctx)
	if s.remote != nil {
		if err := s.remote.Clear(ctx); err != nil {
			return err
		}
	}
	s.logger.InfoCtx(ctx, "cache cleared")
	return nil
}

// Stats 统计快照
func (s *TieredStore) Stats() Stats {
	st := Stats{
		LocalHits:     s.stats.localHits.Load(),
		RemoteHits:    s.stats.remoteHits.Load(),
		Misses:        s.stats.misses.Load(),
		RemoteErrors:  s.stats.remoteErrors.Load(),
		Malformed:     s.stats.malformed.Load(),
		Invalidations: s.stats.invalidations.Load(),
		RemoteEnabled: s.remote != nil,
	}
	if ms, ok := s.local.(*MemoryStore); ok {
		st.LocalEntries = ms.Len()
	}
	if rs, ok := s.remote.(*RedisStore); ok {
		st.BreakerState = rs.BreakerState()
	}
	return st
}

// Close 关闭两层
func (s *TieredStore) Close() error {
	err := s.local.Close()
	if s.remote != nil {
		err = errors.Join(err, s.remote.Close())
	}
	return err
}

// Shutdown 实现 do.Shutdowner
func (s *TieredStore) Shutdown() error {
	return s.Close()
}

func (s *TieredStore) backfillTTL(remaining time.Duration) time.Duration {
	ttl := remaining
	if ttl <= 0 {
		ttl = fallbackLocalTTL
	}
	if s.localTTLCap > 0 && ttl > s.localTTLCap {
		ttl = s.localTTLCap
	}
	return ttl
}

// remoteFailed 熔断打开期间只记 Debug，避免每个请求刷告警
func (s *TieredStore) remoteFailed(ctx context.Context, op, key string, err error) {
	s.stats.remoteError(ctx, op)
	fields := []zap.Field{zap.String("op", op), zap.String("key", key), zap.Error(err)}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		s.logger.DebugCtx(ctx, "remote cache unavailable, breaker open", fields...)
		return
	}
	s.logger.WarnCtx(ctx, "remote cache unavailable, using local tier", fields...)
}
