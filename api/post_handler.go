package api

import (
	"github.com/KOMKZ/go-yogan-feed/feed"
	"github.com/KOMKZ/go-yogan-feed/httpx/types"
	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/KOMKZ/go-yogan-feed/middleware"
	"github.com/KOMKZ/go-yogan-feed/post"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PostHandler 帖子、评论、点赞、关注
//
// 写操作成功后由 post.Service 派发事件，缓存失效不在 handler 中处理。
type PostHandler struct {
	posts *post.Service
	log   *logger.CtxZapLogger
}

func NewPostHandler(posts *post.Service, log *logger.CtxZapLogger) *PostHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &PostHandler{posts: posts, log: log}
}

// Get GET /posts/:id，同时记录一次浏览
func (h *PostHandler) Get(c *gin.Context, req *IDRequest) (*feed.Item, error) {
	ctx := c.Request.Context()
	item, err := h.posts.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := h.posts.RecordView(ctx, req.ID); err != nil {
		h.log.WarnCtx(ctx, "record view failed", zap.Uint64("post_id", req.ID), zap.Error(err))
	}
	return item, nil
}

// Create POST /posts，作者为当前访问者，返回 201
func (h *PostHandler) Create(c *gin.Context, req *CreatePostRequest) (*PostResponse, error) {
	in, err := types.CopyAs[post.CreateInput](*req)
	if err != nil {
		return nil, err
	}
	in.AuthorID = middleware.ViewerID(c)

	p, err := h.posts.Create(c.Request.Context(), in)
	if err != nil {
		return nil, err
	}
	return toPostResponse(p)
}

// Update PUT /posts/:id
func (h *PostHandler) Update(c *gin.Context, req *UpdatePostRequest) (*PostResponse, error) {
	p, err := h.posts.Update(c.Request.Context(), req.ID, post.UpdateInput{
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
	})
	if err != nil {
		return nil, err
	}
	return toPostResponse(p)
}

// Delete DELETE /posts/:id
func (h *PostHandler) Delete(c *gin.Context, req *IDRequest) error {
	return h.posts.Delete(c.Request.Context(), req.ID)
}

// ChangeStatus PATCH /posts/:id/status
func (h *PostHandler) ChangeStatus(c *gin.Context, req *ChangeStatusRequest) (*PostResponse, error) {
	p, err := h.posts.ChangeStatus(c.Request.Context(), req.ID, req.Status)
	if err != nil {
		return nil, err
	}
	return toPostResponse(p)
}

// Feature POST /posts/:id/feature
func (h *PostHandler) Feature(c *gin.Context, req *FeatureRequest) (*PostResponse, error) {
	p, err := h.posts.Feature(c.Request.Context(), req.ID, req.Until)
	if err != nil {
		return nil, err
	}
	return toPostResponse(p)
}

// Unfeature DELETE /posts/:id/feature
func (h *PostHandler) Unfeature(c *gin.Context, req *IDRequest) (*PostResponse, error) {
	p, err := h.posts.Unfeature(c.Request.Context(), req.ID)
	if err != nil {
		return nil, err
	}
	return toPostResponse(p)
}

// Like POST /posts/:id/like
func (h *PostHandler) Like(c *gin.Context, req *IDRequest) error {
	return h.posts.Like(c.Request.Context(), req.ID, middleware.ViewerID(c))
}

// Unlike DELETE /posts/:id/like
func (h *PostHandler) Unlike(c *gin.Context, req *IDRequest) error {
	return h.posts.Unlike(c.Request.Context(), req.ID, middleware.ViewerID(c))
}

// ListComments GET /posts/:id/comments
func (h *PostHandler) ListComments(c *gin.Context, req *ListCommentsRequest) (*types.PageData[CommentResponse], error) {
	req.PageQuery.ApplyDefaults()
	comments, total, err := h.posts.ListComments(c.Request.Context(), req.ID, req.Page, req.Limit)
	if err != nil {
		return nil, err
	}
	data := types.NewPageData(types.CopySlice(comments, toCommentResponse), total, req.PageQuery)
	return &data, nil
}

// AddComment POST /posts/:id/comments
func (h *PostHandler) AddComment(c *gin.Context, req *CommentRequest) (*CommentResponse, error) {
	comment, err := h.posts.AddComment(c.Request.Context(), req.ID, post.CommentInput{
		AuthorID: middleware.ViewerID(c),
		Body:     req.Body,
	})
	if err != nil {
		return nil, err
	}
	resp := toCommentResponse(*comment)
	return &resp, nil
}

// DeleteComment DELETE /comments/:id
func (h *PostHandler) DeleteComment(c *gin.Context, req *IDRequest) error {
	return h.posts.DeleteComment(c.Request.Context(), req.ID)
}

// Follow POST /users/:id/follow，当前访问者关注 :id
func (h *PostHandler) Follow(c *gin.Context, req *IDRequest) error {
	return h.posts.Follow(c.Request.Context(), middleware.ViewerID(c), req.ID)
}

// Unfollow DELETE /users/:id/follow
func (h *PostHandler) Unfollow(c *gin.Context, req *IDRequest) error {
	return h.posts.Unfollow(c.Request.Context(), middleware.ViewerID(c), req.ID)
}
