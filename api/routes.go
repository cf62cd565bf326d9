package api

import (
	"github.com/KOMKZ/go-yogan-feed/application"
	"github.com/KOMKZ/go-yogan-feed/cache"
	"github.com/KOMKZ/go-yogan-feed/feed"
	"github.com/KOMKZ/go-yogan-feed/httpx"
	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/KOMKZ/go-yogan-feed/middleware"
	"github.com/KOMKZ/go-yogan-feed/post"
	"github.com/gin-gonic/gin"
	"github.com/samber/do/v2"
)

// Handlers 全部路由依赖
type Handlers struct {
	Feed  *FeedHandler
	Post  *PostHandler
	Cache *CacheHandler
}

// NewHandlers 直接由服务构建（测试使用）
func NewHandlers(feeds *feed.Service, posts *post.Service, store *cache.TieredStore) *Handlers {
	return &Handlers{
		Feed:  NewFeedHandler(feeds),
		Post:  NewPostHandler(posts, logger.GetLogger("api")),
		Cache: NewCacheHandler(store),
	}
}

// Routes 以 application.Router 形式注册，服务从容器获取
func Routes() application.Router {
	return application.RouterFunc(func(api *gin.RouterGroup, app *application.Application) {
		i := app.Injector()
		NewHandlers(
			do.MustInvoke[*feed.Service](i),
			do.MustInvoke[*post.Service](i),
			do.MustInvoke[*cache.TieredStore](i),
		).Register(api)
	})
}

// Register 注册到 /api/v1 分组
func (h *Handlers) Register(api *gin.RouterGroup) {
	viewer := middleware.RequireViewer()

	feeds := api.Group("/feed")
	feeds.GET("", httpx.Wrap(h.Feed.List))
	feeds.GET("/following", viewer, httpx.Wrap(h.Feed.Following))
	feeds.GET("/featured", httpx.Wrap(h.Feed.Featured))

	posts := api.Group("/posts")
	posts.GET("/search", httpx.Wrap(h.Feed.Search))
	posts.POST("", viewer, httpx.WrapCreated(h.Post.Create))
	posts.GET("/:id", httpx.Wrap(h.Post.Get))
	posts.PUT("/:id", httpx.Wrap(h.Post.Update))
	posts.DELETE("/:id", httpx.WrapNoContent(h.Post.Delete))
	posts.PATCH("/:id/status", httpx.Wrap(h.Post.ChangeStatus))
	posts.POST("/:id/feature", httpx.Wrap(h.Post.Feature))
	posts.DELETE("/:id/feature", httpx.Wrap(h.Post.Unfeature))
	posts.POST("/:id/like", viewer, httpx.WrapNoContent(h.Post.Like))
	posts.DELETE("/:id/like", viewer, httpx.WrapNoContent(h.Post.Unlike))
	posts.GET("/:id/comments", httpx.Wrap(h.Post.ListComments))
	posts.POST("/:id/comments", viewer, httpx.WrapCreated(h.Post.AddComment))

	api.DELETE("/comments/:id", httpx.WrapNoContent(h.Post.DeleteComment))

	users := api.Group("/users")
	users.POST("/:id/follow", viewer, httpx.WrapNoContent(h.Post.Follow))
	users.DELETE("/:id/follow", viewer, httpx.WrapNoContent(h.Post.Unfollow))

	api.GET("/cache/stats", httpx.Wrap(h.Cache.Stats))
}
