package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	mr     *miniredis.Miniredis
	client *redis.Client
	local  *MemoryStore
	remote *RedisStore
	store  *TieredStore
	clock  *fakeClock
	logs   *observer.ObservedLogs
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.KeyPrefix = "test:"
	cfg.RemoteTimeout = 200 * time.Millisecond
	cfg.LocalTTLCap = 0
	cfg.Breaker.FailureThreshold = 3
	cfg.Breaker.OpenTimeout = time.Minute
	return cfg
}

func newFixture(t *testing.T, withRemote bool) *fixture {
	t.Helper()
	cfg := testConfig()
	log, logs := logger.NewObserved("cache")
	clock := newFakeClock()

	local, err := NewMemoryStore(100, WithClock(clock.Now))
	require.NoError(t, err)

	f := &fixture{local: local, clock: clock, logs: logs}
	var remote Store
	if withRemote {
		f.mr = miniredis.RunT(t)
		f.client = redis.NewClient(&redis.Options{Addr: f.mr.Addr(), MaxRetries: -1})
		t.Cleanup(func() { _ = f.client.Close() })
		f.remote = NewRedisStore(f.client, cfg.KeyPrefix, cfg.RemoteTimeout, cfg.Breaker, log)
		remote = f.remote
	}

	f.store, err = NewTieredStore(local, remote, cfg, log, WithMeter(noop.NewMeterProvider().Meter("test")))
	require.NoError(t, err)
	return f
}
