package post

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-feed/cache"
	"github.com/KOMKZ/go-yogan-feed/database"
	"github.com/KOMKZ/go-yogan-feed/event"
	"github.com/KOMKZ/go-yogan-feed/feed"
	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type env struct {
	svc      *Service
	feed     *feed.Service
	store    *cache.TieredStore
	events   *event.Dispatcher
	clock    *testClock
	received []string
	mu       sync.Mutex
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dbm, err := database.NewManager(map[string]database.Config{"main": database.MemorySQLiteConfig(t.Name())},
		database.NewGormLoggerFactory(logger.NewNop()), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbm.Close() })
	db := dbm.DB("main")
	require.NoError(t, AutoMigrate(db))

	local, err := cache.NewMemoryStore(1000)
	require.NoError(t, err)
	store, err := cache.NewTieredStore(local, nil, cache.DefaultConfig(), logger.NewNop())
	require.NoError(t, err)

	d := event.NewDispatcher(event.WithLogger(logger.NewNop()))
	t.Cleanup(d.Close)
	cache.NewInvalidator(store, nil, logger.NewNop()).Register(d)

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	e := &env{store: store, events: d, clock: clock}
	e.svc = NewService(db, store, d, logger.NewNop(), WithClock(clock.Now))
	e.feed = feed.NewService(e.svc.Repository(), store, feed.DefaultConfig(), logger.NewNop())

	for _, name := range []string{
		EventPostCreated, EventPostUpdated, EventPostDeleted, EventPostStatusChanged,
		EventPostFeatured, EventPostUnfeatured, EventPostLiked, EventPostUnliked,
		EventCommentCreated, EventCommentDeleted, EventUserFollowed, EventUserUnfollowed,
	} {
		d.Subscribe(name, event.ListenerFunc(func(_ context.Context, ev event.Event) error {
			e.mu.Lock()
			e.received = append(e.received, ev.Name())
			e.mu.Unlock()
			return nil
		}))
	}
	return e
}

func (e *env) dispatched() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.received...)
}

// seed 依次创建帖子，每条间隔一秒
func (e *env) seed(t *testing.T, n int, author uint64, category string) []*Post {
	t.Helper()
	posts := make([]*Post, 0, n)
	for i := 0; i < n; i++ {
		e.clock.Advance(time.Second)
		p, err := e.svc.Create(context.Background(), CreateInput{
			AuthorID: author,
			Title:    fmt.Sprintf("post %d by %d", i, author),
			Body:     "body",
			Category: category,
		})
		require.NoError(t, err)
		posts = append(posts, p)
	}
	return posts
}

func (e *env) feature(t *testing.T, id uint64, until *time.Time) {
	t.Helper()
	e.clock.Advance(time.Second)
	_, err := e.svc.Feature(context.Background(), id, until)
	require.NoError(t, err)
}

func itemIDs(items []feed.Item) []uint64 {
	out := make([]uint64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
