package di

import (
	"context"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-feed/cache"
	"github.com/KOMKZ/go-yogan-feed/database"
	"github.com/KOMKZ/go-yogan-feed/event"
	"github.com/KOMKZ/go-yogan-feed/feed"
	"github.com/KOMKZ/go-yogan-feed/health"
	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/KOMKZ/go-yogan-feed/post"
	"github.com/KOMKZ/go-yogan-feed/redis"
	"github.com/KOMKZ/go-yogan-feed/scheduler"
	"github.com/KOMKZ/go-yogan-feed/telemetry"
	"github.com/alicebob/miniredis/v2"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newContainer(t *testing.T, redisAddr string) *do.RootScope {
	t.Helper()
	injector := New()

	cacheCfg := cache.DefaultConfig()
	cacheCfg.KeyPrefix = "di-test:"
	redisCfgs := map[string]redis.Config{}
	if redisAddr != "" {
		redisCfgs[DefaultRedis] = redis.Config{Addr: redisAddr}
	} else {
		cacheCfg.RemoteEnabled = false
	}

	do.ProvideValue(injector, logger.NewManager(logger.ManagerConfig{Level: "error"}))
	do.Provide(injector, ProvideTelemetry(telemetry.Config{}))
	do.Provide(injector, ProvideDatabaseManager(map[string]database.Config{
		DefaultDatabase: database.MemorySQLiteConfig(t.Name()),
	}))
	do.Provide(injector, ProvideDB(DefaultDatabase))
	do.Provide(injector, ProvideRedisManager(redisCfgs))
	do.Provide(injector, ProvideCacheStore(cacheCfg))
	do.Provide(injector, ProvideDispatcher(event.Config{SetAllSync: true}))
	do.Provide(injector, ProvideInvalidator(cacheCfg))
	do.Provide(injector, ProvidePostService)
	do.Provide(injector, ProvideFeedService(feed.Config{}))
	do.Provide(injector, ProvideScheduler(scheduler.Config{FeaturedExpiryInterval: time.Hour}))
	do.Provide(injector, ProvideHealth(health.Config{Timeout: time.Second}))

	require.NoError(t, post.AutoMigrate(do.MustInvoke[*gorm.DB](injector)))
	return injector
}

func TestContainer_EndToEnd(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	injector := newContainer(t, mr.Addr())
	ctx := context.Background()

	posts := do.MustInvoke[*post.Service](injector)
	feeds := do.MustInvoke[*feed.Service](injector)

	p, err := posts.Create(ctx, post.CreateInput{AuthorID: 1, Title: "hello", Body: "world", Category: "news"})
	require.NoError(t, err)

	page, err := feeds.GetPage(ctx, feed.PageRequest{Page: 1, Limit: 10, FeaturedFirst: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, p.ID, page.Items[0].ID)
	assert.NotEmpty(t, mr.Keys(), "page cached in the remote tier")

	_, err = posts.Create(ctx, post.CreateInput{AuthorID: 1, Title: "second", Body: "b"})
	require.NoError(t, err)

	page, err = feeds.GetPage(ctx, feed.PageRequest{Page: 1, Limit: 10, FeaturedFirst: true})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2, "create invalidated the cached page")

	agg := do.MustInvoke[*health.Aggregator](injector)
	assert.Equal(t, health.StatusHealthy, agg.Check(ctx).Status)

	mr.Close()
	assert.Equal(t, health.StatusDegraded, agg.Check(ctx).Status)

	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	assert.NoError(t, Shutdown(sctx, injector, logger.NewNop()))
}

func TestContainer_LocalOnly(t *testing.T) {
	injector := newContainer(t, "")
	store := do.MustInvoke[*cache.TieredStore](injector)
	assert.False(t, store.Stats().RemoteEnabled)

	agg := do.MustInvoke[*health.Aggregator](injector)
	resp := agg.Check(context.Background())
	assert.Equal(t, health.StatusHealthy, resp.Status)
	assert.Contains(t, resp.Checks, "database")
	assert.NotContains(t, resp.Checks, "redis")
	assert.Contains(t, resp.Checks, "cache")

	_, err := do.Invoke[*scheduler.Scheduler](injector)
	require.NoError(t, err)
	assert.NoError(t, Shutdown(context.Background(), injector, logger.NewNop()))
}

func TestProvideDatabaseManager_NoConfig(t *testing.T) {
	injector := New()
	do.Provide(injector, ProvideTelemetry(telemetry.Config{}))
	do.Provide(injector, ProvideDatabaseManager(nil))
	_, err := do.Invoke[*database.Manager](injector)
	assert.Error(t, err)
}
