package post

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/KOMKZ/go-yogan-feed/database"
	"github.com/KOMKZ/go-yogan-feed/feed"
	"gorm.io/gorm"
)

// defaultFeaturedLimit 精选列表整表取出，设置上限防止运营误操作拖垮查询
const defaultFeaturedLimit = 500

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Repository 帖子查询，实现 feed.Source
// 所有排序以 id 作为最后的决胜字段，保证 offset 分页稳定
type Repository struct {
	*database.BaseRepository[Post]
	now           func() time.Time
	featuredLimit int
}

func NewRepository(db *gorm.DB, now func() time.Time) *Repository {
	if now == nil {
		now = time.Now
	}
	return &Repository{BaseRepository: database.NewBaseRepository[Post](db), now: now, featuredLimit: defaultFeaturedLimit}
}

var _ feed.Source = (*Repository)(nil)

// WithTx 绑定事务
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{BaseRepository: r.BaseRepository.WithTx(tx), now: r.now, featuredLimit: r.featuredLimit}
}

// WithFeaturedLimit 精选列表上限，超出上限的精选帖子在两个子集中都不出现
func (r *Repository) WithFeaturedLimit(n int) *Repository {
	cp := *r
	if n > 0 {
		cp.featuredLimit = n
	}
	return &cp
}

// filtered 公共过滤条件（软删除由 gorm 自动处理）
func (r *Repository) filtered(ctx context.Context, f feed.Filters) *gorm.DB {
	q := r.DB().WithContext(ctx).Model(&Post{})
	if f.Status != "" && f.Status != feed.StatusAll {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Query != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(f.Query)) + "%"
		q = q.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(body) LIKE ? ESCAPE '!')", pattern, pattern)
	}
	if f.FollowerID != 0 {
		q = q.Where("author_id IN (?)",
			r.DB().Model(&Follow{}).Select("followee_id").Where("follower_id = ?", f.FollowerID))
	}
	return q
}

const featuredPredicate = "is_featured = ? AND (featured_until IS NULL OR featured_until > ?)"

func (r *Repository) featuredScope(ctx context.Context, f feed.Filters) *gorm.DB {
	return r.filtered(ctx, f).Where(featuredPredicate, true, r.now().UTC())
}

// regularScope 调用方传入了精选 id 时，除显式排除外还排除所有当前有效的精选帖子，
// 精选列表被上限截断时多出的精选帖子也不会落入常规子集。
// 未传 id（featured_first=false 或精选来源失败）时精选帖子按常规内容参与排序。
func (r *Repository) regularScope(ctx context.Context, f feed.Filters, excludeIDs []uint64) *gorm.DB {
	q := r.filtered(ctx, f)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs).
			Where("NOT ("+featuredPredicate+")", true, r.now().UTC())
	}
	return q
}

// QueryFeatured 当前有效的精选帖子
func (r *Repository) QueryFeatured(ctx context.Context, f feed.Filters, sort feed.Sort) ([]feed.Item, error) {
	var posts []Post
	err := r.featuredScope(ctx, f).
		Order(featuredOrder(sort)).
		Limit(r.featuredLimit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("query featured posts: %w", err)
	}
	return toItems(posts), nil
}

// QueryRegular 常规帖子分页，total 使用相同的过滤与排除条件
func (r *Repository) QueryRegular(ctx context.Context, f feed.Filters, sort feed.Sort, excludeIDs []uint64, limit, offset int) ([]feed.Item, int64, error) {
	total, err := r.CountRegular(ctx, f, excludeIDs)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(offset) >= total {
		return []feed.Item{}, total, nil
	}

	var posts []Post
	err = r.regularScope(ctx, f, excludeIDs).
		Order(regularOrder(sort)).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("query regular posts: %w", err)
	}
	return toItems(posts), total, nil
}

func (r *Repository) CountRegular(ctx context.Context, f feed.Filters, excludeIDs []uint64) (int64, error) {
	var total int64
	if err := r.regularScope(ctx, f, excludeIDs).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count regular posts: %w", err)
	}
	return total, nil
}

// ExpiredFeatured 精选窗口已结束但仍标记为精选的帖子
func (r *Repository) ExpiredFeatured(ctx context.Context, now time.Time) ([]Post, error) {
	var posts []Post
	err := r.DB().WithContext(ctx).
		Where("is_featured = ?", true).
		Where("featured_until IS NOT NULL AND featured_until <= ?", now.UTC()).
		Order("id").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("query expired featured posts: %w", err)
	}
	return posts, nil
}

func regularOrder(sort feed.Sort) string {
	switch sort {
	case feed.SortOldest:
		return "created_at ASC, id ASC"
	case feed.SortMostLiked:
		return "like_count DESC, created_at DESC, id DESC"
	case feed.SortMostViewed:
		return "view_count DESC, created_at DESC, id DESC"
	case feed.SortMostCommented:
		return "comment_count DESC, created_at DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

// featuredOrder 精选默认按设为精选的时间倒序；按指标排序时指标优先
func featuredOrder(sort feed.Sort) string {
	switch sort {
	case feed.SortMostLiked:
		return "like_count DESC, featured_at DESC, id DESC"
	case feed.SortMostViewed:
		return "view_count DESC, featured_at DESC, id DESC"
	case feed.SortMostCommented:
		return "comment_count DESC, featured_at DESC, id DESC"
	default:
		return "featured_at DESC, id DESC"
	}
}

func toItems(posts []Post) []feed.Item {
	items := make([]feed.Item, len(posts))
	for i := range posts {
		items[i] = posts[i].Item()
	}
	return items
}
