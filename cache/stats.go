package cache

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Stats 缓存统计快照
type Stats struct {
	LocalHits     int64  `json:"local_hits"`
	RemoteHits    int64  `json:"remote_hits"`
	Misses        int64  `json:"misses"`
	RemoteErrors  int64  `json:"remote_errors"`
	Malformed     int64  `json:"malformed"`
	Invalidations int64  `json:"invalidations"`
	LocalEntries  int    `json:"local_entries"`
	RemoteEnabled bool   `json:"remote_enabled"`
	BreakerState  string `json:"breaker_state,omitempty"`
}

// counters 进程内计数 + otel 指标
type counters struct {
	localHits     atomic.Int64
	remoteHits    atomic.Int64
	misses        atomic.Int64
	remoteErrors  atomic.Int64
	malformed     atomic.Int64
	invalidations atomic.Int64

	hits         metric.Int64Counter
	missCounter  metric.Int64Counter
	errorCounter metric.Int64Counter
	invalidCount metric.Int64Counter
}

func newCounters(meter metric.Meter) (*counters, error) {
	c := &counters{}
	var err error
	if c.hits, err = meter.Int64Counter("cache.hits", metric.WithDescription("Cache hits by tier")); err != nil {
		return nil, err
	}
	if c.missCounter, err = meter.Int64Counter("cache.misses", metric.WithDescription("Cache misses across both tiers")); err != nil {
		return nil, err
	}
	if c.errorCounter, err = meter.Int64Counter("cache.remote_errors", metric.WithDescription("Remote tier failures degraded to local")); err != nil {
		return nil, err
	}
	if c.invalidCount, err = meter.Int64Counter("cache.invalidations", metric.WithDescription("Pattern and key invalidations")); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *counters) hit(ctx context.Context, tier string) {
	if tier == "remote" {
		c.remoteHits.Add(1)
	} else {
		c.localHits.Add(1)
	}
	c.hits.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

func (c *counters) miss(ctx context.Context) {
	c.misses.Add(1)
	c.missCounter.Add(ctx, 1)
}

func (c *counters) remoteError(ctx context.Context, op string) {
	c.remoteErrors.Add(1)
	c.errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (c *counters) invalidated(ctx context.Context, kind string) {
	c.invalidations.Add(1)
	c.invalidCount.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
