// Package post 帖子、评论、点赞与关注
//
// Repository 实现 feed.Source；Service 负责变更，每次变更在事务提交后分发事件，
// 由 cache.Invalidator 失效相关缓存。
package post

import (
	"time"

	"github.com/KOMKZ/go-yogan-feed/feed"
	"gorm.io/gorm"
)

// 帖子状态
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Statuses 全部合法状态
var Statuses = []string{StatusDraft, StatusPublished, StatusArchived}

type Post struct {
	ID            uint64         `gorm:"primaryKey" json:"id"`
	AuthorID      uint64         `gorm:"not null;index" json:"author_id"`
	Title         string         `gorm:"size:200;not null" json:"title"`
	Body          string         `gorm:"type:text" json:"body"`
	Category      string         `gorm:"size:64;index" json:"category"`
	Status        string         `gorm:"size:16;not null;index" json:"status"`
	LikeCount     int64          `gorm:"not null;default:0" json:"like_count"`
	ViewCount     int64          `gorm:"not null;default:0" json:"view_count"`
	CommentCount  int64          `gorm:"not null;default:0" json:"comment_count"`
	IsFeatured    bool           `gorm:"not null;default:false;index" json:"is_featured"`
	FeaturedAt    *time.Time     `json:"featured_at,omitempty"`
	FeaturedUntil *time.Time     `gorm:"index" json:"featured_until,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Post) TableName() string {
	return "posts"
}

// Item 转换为内容流条目
func (p *Post) Item() feed.Item {
	return feed.Item{
		ID:            p.ID,
		AuthorID:      p.AuthorID,
		Title:         p.Title,
		Body:          p.Body,
		Category:      p.Category,
		Status:        p.Status,
		LikeCount:     p.LikeCount,
		ViewCount:     p.ViewCount,
		CommentCount:  p.CommentCount,
		IsFeatured:    p.IsFeatured,
		FeaturedAt:    p.FeaturedAt,
		FeaturedUntil: p.FeaturedUntil,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type Comment struct {
	ID        uint64         `gorm:"primaryKey" json:"id"`
	PostID    uint64         `gorm:"not null;index" json:"post_id"`
	AuthorID  uint64         `gorm:"not null" json:"author_id"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Comment) TableName() string {
	return "comments"
}

// Like 同一用户对同一帖子只能有一条
type Like struct {
	ID        uint64    `gorm:"primaryKey"`
	PostID    uint64    `gorm:"not null;uniqueIndex:idx_likes_post_user"`
	UserID    uint64    `gorm:"not null;uniqueIndex:idx_likes_post_user"`
	CreatedAt time.Time
}

func (Like) TableName() string {
	return "likes"
}

type Follow struct {
	ID         uint64    `gorm:"primaryKey"`
	FollowerID uint64    `gorm:"not null;uniqueIndex:idx_follows_pair"`
	FolloweeID uint64    `gorm:"not null;uniqueIndex:idx_follows_pair;index"`
	CreatedAt  time.Time
}

func (Follow) TableName() string {
	return "follows"
}

// Models 需要迁移的模型
func Models() []any {
	return []any{&Post{}, &Comment{}, &Like{}, &Follow{}}
}

// AutoMigrate 迁移全部表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
