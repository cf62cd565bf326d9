package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

type page struct {
	IDs   []uint64 `json:"ids"`
	Total int64    `json:"total"`
}

func TestTieredStore_SetThenGet(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.store.Set(ctx, "feed:general|page=1", []byte("v1"), time.Minute)
	v, ok := f.store.Get(ctx, "feed:general|page=1")
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), v)
	assert.True(t, f.mr.Exists("test:feed:general|page=1"))
	assert.Equal(t, int64(1), f.store.Stats().RemoteHits)
}

func TestTieredStore_RemoteHitBackfillsLocal(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	// 另一个实例写入的条目
	require.NoError(t, f.mr.Set("test:post:item|id=7", "shared"))
	f.mr.SetTTL("test:post:item|id=7", 45*time.Second)

	v, ok := f.store.Get(ctx, "post:item|id=7")
	require.True(t, ok)
	assert.Equal(t, []byte("shared"), v)

	local, ttl, err := f.local.Get(ctx, "post:item|id=7")
	require.NoError(t, err)
	assert.Equal(t, []byte("shared"), local)
	assert.Equal(t, 45*time.Second, ttl)
}

func TestTieredStore_BackfillRespectsCap(t *testing.T) {
	f := newFixture(t, true)
	f.store.localTTLCap = 10 * time.Second
	ctx := context.Background()

	f.store.Set(ctx, "k", []byte("v"), time.Minute)
	require.NoError(t, f.local.Delete(ctx, "k"))

	_, ok := f.store.Get(ctx, "k")
	require.True(t, ok)
	_, ttl, err := f.local.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, ttl)
}

func TestTieredStore_RemoteMissFallsThroughToLocal(t *testing.T) {
	f := newFixture(t, true)
	f.store.localTTLCap = 30 * time.Second
	ctx := context.Background()

	f.store.Set(ctx, "feed:general|page=1", []byte("old"), time.Minute)
	_, ttl, err := f.local.Get(ctx, "feed:general|page=1")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, ttl, "local copy is capped")

	// 远端条目被淘汰或被其他实例删除
	f.mr.Del("test:feed:general|page=1")

	v, ok := f.store.Get(ctx, "feed:general|page=1")
	require.True(t, ok)
	assert.Equal(t, []byte("old"), v)
	assert.Equal(t, int64(1), f.store.Stats().LocalHits)

	f.clock.Advance(31 * time.Second)
	_, ok = f.store.Get(ctx, "feed:general|page=1")
	assert.False(t, ok, "staleness bounded by the local cap")
}

// failingWrites 读正常、写失败的远端（只读副本、maxmemory 等）
type failingWrites struct {
	Store
}

func (failingWrites) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("OOM command not allowed when used memory > 'maxmemory'")
}

func TestTieredStore_RemoteWriteFailureServesLocal(t *testing.T) {
	f := newFixture(t, true)
	cfg := testConfig()
	store, err := NewTieredStore(f.local, failingWrites{Store: f.remote}, cfg, logger.NewNop(),
		WithMeter(noop.NewMeterProvider().Meter("test")))
	require.NoError(t, err)
	ctx := context.Background()

	store.Set(ctx, "post:item|id=1", []byte("v"), time.Minute)
	assert.False(t, f.mr.Exists("test:post:item|id=1"))

	v, ok := store.Get(ctx, "post:item|id=1")
	require.True(t, ok, "remote reports a miss, local copy still serves")
	assert.Equal(t, []byte("v"), v)

	st := store.Stats()
	assert.Equal(t, int64(1), st.LocalHits)
	assert.Equal(t, int64(1), st.RemoteErrors)
	assert.Zero(t, st.Misses)
}

func TestTieredStore_Expiry(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.store.Set(ctx, "k", []byte("v"), 2*time.Second)
	f.mr.FastForward(3 * time.Second)
	f.clock.Advance(3 * time.Second)

	_, ok := f.store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestTieredStore_LocalOnlyExpiry(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	f.store.Set(ctx, "k", []byte("v"), 2*time.Second)
	_, ok := f.store.Get(ctx, "k")
	assert.True(t, ok)

	f.clock.Advance(2 * time.Second)
	_, ok = f.store.Get(ctx, "k")
	assert.False(t, ok)

	st := f.store.Stats()
	assert.False(t, st.RemoteEnabled)
	assert.Equal(t, int64(1), st.LocalHits)
	assert.Equal(t, int64(1), st.Misses)
}

func TestTieredStore_RemoteUnavailableFallsBackToLocal(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.mr.SetError("injected failure")

	f.store.Set(ctx, "feed:general|page=1", []byte("v"), time.Minute)
	v, ok := f.store.Get(ctx, "feed:general|page=1")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	f.store.InvalidatePattern(ctx, "feed:general")
	_, ok = f.store.Get(ctx, "feed:general|page=1")
	assert.False(t, ok, "local tier is invalidated even when remote fails")

	assert.Positive(t, f.store.Stats().RemoteErrors)
	assert.Positive(t, f.logs.FilterMessage("remote cache unavailable, using local tier").Len())
}

func TestTieredStore_RemoteUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	cfg := testConfig()
	local, err := NewMemoryStore(10)
	require.NoError(t, err)
	remote := NewRedisStore(client, cfg.KeyPrefix, cfg.RemoteTimeout, cfg.Breaker, nil)
	store, err := NewTieredStore(local, remote, cfg, nil, WithMeter(noop.NewMeterProvider().Meter("test")))
	require.NoError(t, err)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		store.Set(ctx, "k", []byte("v"), time.Minute)
	})
	v, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestTieredStore_BreakerOpenLogsAtDebug(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.mr.SetError("injected failure")

	for i := 0; i < 5; i++ {
		f.store.Get(ctx, "k")
	}
	assert.Equal(t, "open", f.store.Stats().BreakerState)
	assert.Equal(t, 3, f.logs.FilterMessage("remote cache unavailable, using local tier").Len())
	assert.Equal(t, 2, f.logs.FilterMessage("remote cache unavailable, breaker open").Len())
}

func TestTieredStore_InvalidatePattern(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	general := FeedGeneralSpec.MustKey(Params{"page": 1, "limit": 20})
	featured := FeedFeaturedSpec.MustKey(Params{"page": 1, "limit": 20})
	item := ItemKey(5)
	for _, k := range []string{general, featured, item} {
		f.store.Set(ctx, k, []byte("v"), time.Minute)
	}

	f.store.InvalidateResources(ctx, ResourceFeedGeneral)
	_, ok := f.store.Get(ctx, general)
	assert.False(t, ok)
	_, ok = f.store.Get(ctx, featured)
	assert.True(t, ok)
	_, ok = f.store.Get(ctx, item)
	assert.True(t, ok)

	// 幂等
	f.store.InvalidatePattern(ctx, FeedGeneralSpec.Pattern())
	f.store.InvalidatePattern(ctx, "")
	assert.Equal(t, 1, f.logs.FilterMessage("empty invalidation pattern ignored").Len())
}

func TestTieredStore_Values(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	want := page{IDs: []uint64{3, 2, 1}, Total: 3}
	f.store.SetValue(ctx, "k", want, time.Minute)

	var got page
	require.True(t, f.store.GetValue(ctx, "k", &got))
	assert.Equal(t, want, got)
}

func TestTieredStore_MalformedEntryIsMiss(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.store.Set(ctx, "k", []byte("{not json"), time.Minute)

	var got page
	assert.False(t, f.store.GetValue(ctx, "k", &got))
	assert.False(t, f.mr.Exists("test:k"), "malformed entry removed")
	assert.Equal(t, int64(1), f.store.Stats().Malformed)
	assert.Equal(t, 1, f.logs.FilterMessage("malformed cache entry dropped").Len())
}

func TestTieredStore_NonPositiveTTLNotCached(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.store.Set(ctx, "k", []byte("v"), 0)
	_, ok := f.store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestTieredStore_ClearAll(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.store.Set(ctx, "a", []byte("1"), time.Minute)
	f.store.Set(ctx, "b", []byte("2"), time.Minute)
	require.NoError(t, f.store.ClearAll(ctx))

	assert.Equal(t, 0, f.local.Len())
	assert.Empty(t, f.mr.Keys())
}

func TestTieredStore_CanceledContextStillWritesRemote(t *testing.T) {
	f := newFixture(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.store.Set(ctx, "k", []byte("v"), time.Minute)
	assert.True(t, f.mr.Exists("test:k"))
}

func TestTieredStore_TTLOverride(t *testing.T) {
	cfg := testConfig()
	cfg.TTLs = map[string]time.Duration{ResourceFeedGeneral: 30 * time.Second}
	local, err := NewMemoryStore(10)
	require.NoError(t, err)
	store, err := NewTieredStore(local, nil, cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, store.TTL(FeedGeneralSpec))
	assert.Equal(t, 300*time.Second, store.TTL(FeedFeaturedSpec))
}

func TestNewTieredStore_RequiresLocal(t *testing.T) {
	_, err := NewTieredStore(nil, nil, testConfig(), nil)
	assert.ErrorIs(t, err, ErrConfigInvalid)
}
