package api

import (
	"github.com/KOMKZ/go-yogan-feed/feed"
	"github.com/KOMKZ/go-yogan-feed/middleware"
	"github.com/gin-gonic/gin"
)

// FeedHandler 内容流读接口
type FeedHandler struct {
	feeds *feed.Service
}

func NewFeedHandler(feeds *feed.Service) *FeedHandler {
	return &FeedHandler{feeds: feeds}
}

// List GET /feed
func (h *FeedHandler) List(c *gin.Context, q *feed.Query) (*feed.PageResult, error) {
	req, err := q.PageRequest()
	if err != nil {
		return nil, err
	}
	return h.feeds.GetPage(c.Request.Context(), req)
}

// Following GET /feed/following，需要 X-User-ID
func (h *FeedHandler) Following(c *gin.Context, q *feed.Query) (*feed.PageResult, error) {
	req, err := q.PageRequest()
	if err != nil {
		return nil, err
	}
	return h.feeds.GetFollowing(c.Request.Context(), middleware.ViewerID(c), req)
}

// Featured GET /feed/featured
func (h *FeedHandler) Featured(c *gin.Context, q *feed.Query) (*feed.PageResult, error) {
	req, err := q.PageRequest()
	if err != nil {
		return nil, err
	}
	return h.feeds.GetFeatured(c.Request.Context(), req)
}

// Search GET /posts/search?q=
func (h *FeedHandler) Search(c *gin.Context, q *feed.Query) (*feed.PageResult, error) {
	req, err := q.PageRequest()
	if err != nil {
		return nil, err
	}
	return h.feeds.Search(c.Request.Context(), req)
}
