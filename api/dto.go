// Package api 内容流服务的 HTTP 接口
package api

import (
	"time"

	"github.com/KOMKZ/go-yogan-feed/httpx/types"
	"github.com/KOMKZ/go-yogan-feed/post"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// IDRequest 路径参数 :id
type IDRequest struct {
	ID uint64 `uri:"id" json:"-"`
}

func (r IDRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
	)
}

// CreatePostRequest 发帖
type CreatePostRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

func (r CreatePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&r.Status, validation.In(post.StatusDraft, post.StatusPublished, post.StatusArchived)),
	)
}

// UpdatePostRequest 部分更新，缺省字段不变
type UpdatePostRequest struct {
	ID       uint64  `uri:"id" json:"-"`
	Title    *string `json:"title"`
	Body     *string `json:"body"`
	Category *string `json:"category"`
}

// ChangeStatusRequest 修改状态
type ChangeStatusRequest struct {
	ID     uint64 `uri:"id" json:"-"`
	Status string `json:"status"`
}

func (r ChangeStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required,
			validation.In(post.StatusDraft, post.StatusPublished, post.StatusArchived)),
	)
}

// FeatureRequest 设为精选；until 为空表示不过期
type FeatureRequest struct {
	ID    uint64     `uri:"id" json:"-"`
	Until *time.Time `json:"until"`
}

func (r FeatureRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Until, validation.By(func(v any) error {
			if t, _ := v.(*time.Time); t != nil && !t.After(time.Now()) {
				return validation.NewError("validation_until_past", "must be in the future")
			}
			return nil
		})),
	)
}

// CommentRequest 发表评论
type CommentRequest struct {
	ID   uint64 `uri:"id" json:"-"`
	Body string `json:"body"`
}

func (r CommentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Body, validation.Required, validation.RuneLength(1, 2000)),
	)
}

// ListCommentsRequest 评论分页
type ListCommentsRequest struct {
	ID uint64 `uri:"id" json:"-"`
	types.PageQuery
}

// PostResponse 帖子详情
type PostResponse struct {
	ID            uint64     `json:"id"`
	AuthorID      uint64     `json:"author_id"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	Category      string     `json:"category"`
	Status        string     `json:"status"`
	LikeCount     int64      `json:"like_count"`
	ViewCount     int64      `json:"view_count"`
	CommentCount  int64      `json:"comment_count"`
	IsFeatured    bool       `json:"is_featured"`
	FeaturedAt    *time.Time `json:"featured_at,omitempty"`
	FeaturedUntil *time.Time `json:"featured_until,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CommentResponse 评论
type CommentResponse struct {
	ID        uint64    `json:"id"`
	PostID    uint64    `json:"post_id"`
	AuthorID  uint64    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func toPostResponse(p *post.Post) (*PostResponse, error) {
	resp, err := types.CopyAs[PostResponse](p)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func toCommentResponse(c post.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
}
