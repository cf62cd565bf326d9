package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-feed/cache"
	"github.com/KOMKZ/go-yogan-feed/database"
	"github.com/KOMKZ/go-yogan-feed/event"
	"github.com/KOMKZ/go-yogan-feed/feed"
	"github.com/KOMKZ/go-yogan-feed/httpx"
	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/KOMKZ/go-yogan-feed/middleware"
	"github.com/KOMKZ/go-yogan-feed/post"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	engine *gin.Engine
	store  *cache.TieredStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dbm, err := database.NewManager(map[string]database.Config{"main": database.MemorySQLiteConfig(t.Name())},
		database.NewGormLoggerFactory(logger.NewNop()), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbm.Close() })
	db := dbm.DB("main")
	require.NoError(t, post.AutoMigrate(db))

	local, err := cache.NewMemoryStore(1000)
	require.NoError(t, err)
	store, err := cache.NewTieredStore(local, nil, cache.DefaultConfig(), logger.NewNop())
	require.NoError(t, err)

	d := event.NewDispatcher(event.WithLogger(logger.NewNop()))
	t.Cleanup(d.Close)
	cache.NewInvalidator(store, nil, logger.NewNop()).Register(d)

	posts := post.NewService(db, store, d, logger.NewNop())
	feeds := feed.NewService(posts.Repository(), store, feed.DefaultConfig(), logger.NewNop())

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(middleware.Viewer())
	engine.NoRoute(httpx.NoRouteHandler())
	NewHandlers(feeds, posts, store).Register(engine.Group("/api/v1"))
	return &testServer{engine: engine, store: store}
}

// call 发送请求；viewer 为 0 时不带 X-User-ID
func (s *testServer) call(t *testing.T, method, path string, viewer uint64, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	buf := &bytes.Buffer{}
	if body != nil {
		require.NoError(t, json.NewEncoder(buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if viewer > 0 {
		req.Header.Set(middleware.ViewerHeader, fmt.Sprint(viewer))
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *testServer) createPost(t *testing.T, author uint64, title string) PostResponse {
	t.Helper()
	w, env := s.call(t, http.MethodPost, "/api/v1/posts", author, map[string]string{"title": title, "body": "b"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p PostResponse
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func decodePage(t *testing.T, env envelope) feed.PageResult {
	t.Helper()
	var page feed.PageResult
	require.NoError(t, json.Unmarshal(env.Data, &page))
	return page
}

func TestFeed_FeaturedFirstOverHTTP(t *testing.T) {
	s := newTestServer(t)
	var ids []uint64
	for i := 0; i < 5; i++ {
		ids = append(ids, s.createPost(t, 1, fmt.Sprintf("post %d", i)).ID)
	}

	w, _ := s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/feature", ids[0]), 0, map[string]any{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := s.call(t, http.MethodGet, "/api/v1/feed?page=1&limit=3", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodePage(t, env)
	require.Len(t, page.Items, 3)
	assert.Equal(t, ids[0], page.Items[0].ID)
	assert.Equal(t, 1, page.FeaturedCount)
	assert.Equal(t, int64(5), page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)

	w, env = s.call(t, http.MethodGet, "/api/v1/feed/featured", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	featured := decodePage(t, env)
	require.Len(t, featured.Items, 1)
	assert.Equal(t, ids[0], featured.Items[0].ID)
}

func TestFeed_InvalidPageParam(t *testing.T) {
	s := newTestServer(t)
	w, env := s.call(t, http.MethodGet, "/api/v1/feed?page=abc", 0, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 101010, env.Code)
	assert.Contains(t, string(env.Data), "Page")
}

func TestFeed_FollowingRequiresViewer(t *testing.T) {
	s := newTestServer(t)
	w, env := s.call(t, http.MethodGet, "/api/v1/feed/following", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, httpx.ErrUnauthorized.Code(), env.Code)

	s.createPost(t, 7, "by seven")
	s.createPost(t, 8, "by eight")

	w, _ = s.call(t, http.MethodPost, "/api/v1/users/7/follow", 1, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = s.call(t, http.MethodGet, "/api/v1/feed/following", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodePage(t, env)
	require.Len(t, page.Items, 1)
	assert.Equal(t, uint64(7), page.Items[0].AuthorID)

	w, _ = s.call(t, http.MethodDelete, "/api/v1/users/7/follow", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, env = s.call(t, http.MethodGet, "/api/v1/feed/following", 1, nil)
	assert.Empty(t, decodePage(t, env).Items)
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)
	s.createPost(t, 1, "golang tips")
	s.createPost(t, 1, "cooking")

	w, env := s.call(t, http.MethodGet, "/api/v1/posts/search?q=golang", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodePage(t, env)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "golang tips", page.Items[0].Title)

	w, env = s.call(t, http.MethodGet, "/api/v1/posts/search", 0, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, feed.ErrQueryRequired.Code(), env.Code)
}

func TestPost_CreateRequiresViewerAndTitle(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.call(t, http.MethodPost, "/api/v1/posts", 0, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.call(t, http.MethodPost, "/api/v1/posts", 1, map[string]string{"body": "no title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 101010, env.Code)
	assert.Contains(t, string(env.Data), "title")

	p := s.createPost(t, 1, "hello")
	assert.Equal(t, uint64(1), p.AuthorID)
	assert.Equal(t, post.StatusPublished, p.Status)
}

func TestPost_GetUpdateDelete(t *testing.T) {
	s := newTestServer(t)
	p := s.createPost(t, 1, "original")
	path := fmt.Sprintf("/api/v1/posts/%d", p.ID)

	w, env := s.call(t, http.MethodGet, path, 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var item feed.Item
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, "original", item.Title)

	w, env = s.call(t, http.MethodPut, path, 0, map[string]string{"title": "edited"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated PostResponse
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "edited", updated.Title)

	// 更新使单条缓存失效
	_, env = s.call(t, http.MethodGet, path, 0, nil)
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, "edited", item.Title)

	w, _ = s.call(t, http.MethodDelete, path, 0, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.call(t, http.MethodGet, path, 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, post.ErrPostNotFound.Code(), env.Code)
}

func TestPost_InvalidID(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.call(t, http.MethodGet, "/api/v1/posts/abc", 0, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.call(t, http.MethodGet, "/api/v1/posts/0", 0, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 101010, env.Code)
}

func TestPost_ChangeStatusHidesFromFeed(t *testing.T) {
	s := newTestServer(t)
	p := s.createPost(t, 1, "soon archived")

	_, env := s.call(t, http.MethodGet, "/api/v1/feed", 0, nil)
	require.Len(t, decodePage(t, env).Items, 1)

	w, env := s.call(t, http.MethodPatch, fmt.Sprintf("/api/v1/posts/%d/status", p.ID), 0, map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 101010, env.Code)

	w, _ = s.call(t, http.MethodPatch, fmt.Sprintf("/api/v1/posts/%d/status", p.ID), 0, map[string]string{"status": post.StatusArchived})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, env = s.call(t, http.MethodGet, "/api/v1/feed", 0, nil)
	assert.Empty(t, decodePage(t, env).Items)
}

func TestPost_FeatureValidation(t *testing.T) {
	s := newTestServer(t)
	p := s.createPost(t, 1, "x")
	past := time.Now().Add(-time.Hour)

	w, env := s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/feature", p.ID), 0, map[string]any{"until": past})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(env.Data), "until")

	future := time.Now().Add(time.Hour)
	w, env = s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/feature", p.ID), 0, map[string]any{"until": future})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var featured PostResponse
	require.NoError(t, json.Unmarshal(env.Data, &featured))
	assert.True(t, featured.IsFeatured)
	require.NotNil(t, featured.FeaturedUntil)

	w, env = s.call(t, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d/feature", p.ID), 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var unfeatured PostResponse
	require.NoError(t, json.Unmarshal(env.Data, &unfeatured))
	assert.False(t, unfeatured.IsFeatured)
}

func TestPost_LikeAndComments(t *testing.T) {
	s := newTestServer(t)
	p := s.createPost(t, 1, "likeable")
	base := fmt.Sprintf("/api/v1/posts/%d", p.ID)

	w, _ := s.call(t, http.MethodPost, base+"/like", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.call(t, http.MethodPost, base+"/like", 2, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := s.call(t, http.MethodPost, base+"/like", 2, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, post.ErrAlreadyLiked.Code(), env.Code)

	_, env = s.call(t, http.MethodGet, "/api/v1/feed", 0, nil)
	page := decodePage(t, env)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Items[0].LikeCount)

	for i := 0; i < 3; i++ {
		w, _ = s.call(t, http.MethodPost, base+"/comments", 3, map[string]string{"body": fmt.Sprintf("c%d", i)})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w, env = s.call(t, http.MethodGet, base+"/comments?page=1&limit=2", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var comments struct {
		Items []CommentResponse `json:"items"`
		Meta  struct {
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
			HasNext    bool  `json:"has_next"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &comments))
	require.Len(t, comments.Items, 2)
	assert.Equal(t, "c0", comments.Items[0].Body)
	assert.Equal(t, int64(3), comments.Meta.Total)
	assert.Equal(t, 2, comments.Meta.TotalPages)
	assert.True(t, comments.Meta.HasNext)

	w, _ = s.call(t, http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", comments.Items[0].ID), 0, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, env = s.call(t, http.MethodGet, "/api/v1/feed", 0, nil)
	assert.Equal(t, int64(2), decodePage(t, env).Items[0].CommentCount)

	w, _ = s.call(t, http.MethodDelete, base+"/like", 2, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCacheStats(t *testing.T) {
	s := newTestServer(t)
	s.createPost(t, 1, "x")

	s.call(t, http.MethodGet, "/api/v1/feed", 0, nil)
	s.call(t, http.MethodGet, "/api/v1/feed", 0, nil)

	w, env := s.call(t, http.MethodGet, "/api/v1/cache/stats", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats cache.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(1), stats.LocalHits)
	assert.GreaterOrEqual(t, stats.Misses, int64(1))
	assert.False(t, stats.RemoteEnabled)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	w, env := s.call(t, http.MethodGet, "/api/v1/nope", 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, httpx.ErrNotFound.Code(), env.Code)
}
