// Package feed 组装内容流分页：精选内容在前，常规内容在后，两个来源共用一套 page/limit
package feed

import (
	"context"
	"strings"
	"time"
)

// Sort 排序方式，只作用于各自的子集内部
type Sort string

const (
	SortDefault       Sort = "default"
	SortNewest        Sort = "newest"
	SortOldest        Sort = "oldest"
	SortMostLiked     Sort = "most_liked"
	SortMostViewed    Sort = "most_viewed"
	SortMostCommented Sort = "most_commented"
)

var sorts = map[Sort]struct{}{
	SortDefault:       {},
	SortNewest:        {},
	SortOldest:        {},
	SortMostLiked:     {},
	SortMostViewed:    {},
	SortMostCommented: {},
}

// ParseSort 兼容 most-liked 写法，未知值返回 SortDefault
func ParseSort(s string) Sort {
	v := Sort(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := sorts[v]; ok {
		return v
	}
	return SortDefault
}

// StatusAll 不按状态过滤
const StatusAll = "all"

// StatusPublished 默认只展示已发布内容
const StatusPublished = "published"

// Filters 结果集过滤条件
type Filters struct {
	Status     string `json:"status"`
	Category   string `json:"category,omitempty"`
	Query      string `json:"query,omitempty"`
	FollowerID uint64 `json:"follower_id,omitempty"` // 只看该用户关注的作者
}

// PageRequest 分页请求
type PageRequest struct {
	Page          int
	Limit         int
	Sort          Sort
	Filters       Filters
	FeaturedFirst bool
}

// Item 内容流中的一条
type Item struct {
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

// PageResult 一页结果及分页信息
type PageResult struct {
	Items         []Item `json:"items"`
	Page          int    `json:"page"`
	Limit         int    `json:"limit"`
	TotalCount    int64  `json:"total_count"`
	TotalPages    int    `json:"total_pages"`
	HasNext       bool   `json:"has_next"`
	HasPrev       bool   `json:"has_prev"`
	FeaturedCount int    `json:"featured_count"` // 本页中精选条目数
}

// Source 数据源
//
// QueryRegular 必须排除 excludeIDs 中的条目，total 与分页无关且使用同样的排除条件
type Source interface {
	QueryFeatured(ctx context.Context, filters Filters, sort Sort) ([]Item, error)
	QueryRegular(ctx context.Context, filters Filters, sort Sort, excludeIDs []uint64, limit, offset int) ([]Item, int64, error)
	CountRegular(ctx context.Context, filters Filters, excludeIDs []uint64) (int64, error)
}
