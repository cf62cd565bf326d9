package post

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/KOMKZ/go-yogan-feed/cache"
	"github.com/KOMKZ/go-yogan-feed/database"
	"github.com/KOMKZ/go-yogan-feed/event"
	"github.com/KOMKZ/go-yogan-feed/feed"
	"github.com/KOMKZ/go-yogan-feed/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service 帖子读写
// 变更先提交事务，再同步分发事件；事件分发失败只记录日志，不影响已提交的变更
type Service struct {
	db     *gorm.DB
	repo   *Repository
	cache  *cache.TieredStore
	events *event.Dispatcher
	now    func() time.Time
	logger *logger.CtxZapLogger
}

// Option Service 选项
type Option func(*Service)

// WithClock 注入时钟
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(db *gorm.DB, store *cache.TieredStore, events *event.Dispatcher, log *logger.CtxZapLogger, opts ...Option) *Service {
	if log == nil {
		log = logger.GetLogger("post")
	}
	s := &Service{
		db:     db,
		cache:  store,
		events: events,
		now:    time.Now,
		logger: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.repo = NewRepository(db, s.now)
	return s
}

// Repository 内容流数据源
func (s *Service) Repository() *Repository {
	return s.repo
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// Create 创建帖子
func (s *Service) Create(ctx context.Context, in CreateInput) (*Post, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, ErrInvalidInput.Wrap(err)
	}

	now := s.clock()
	p := &Post{
		AuthorID:  in.AuthorID,
		Title:     in.Title,
		Body:      in.Body,
		Category:  in.Category,
		Status:    in.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, ErrStorage.Wrap(err)
	}

	s.logger.InfoCtx(ctx, "post created", zap.Uint64("post_id", p.ID), zap.Uint64("author_id", p.AuthorID))
	s.publish(ctx, newPostEvent(EventPostCreated, now, p.ID, p.AuthorID))
	return p, nil
}

// Update 部分更新标题、正文、分类
func (s *Service) Update(ctx context.Context, id uint64, in UpdateInput) (*Post, error) {
	if err := in.Validate(); err != nil {
		return nil, ErrInvalidInput.Wrap(err)
	}
	updates := in.updates()
	if len(updates) == 0 {
		return s.find(ctx, s.repo, id)
	}
	return s.update(ctx, id, updates, EventPostUpdated)
}

// ChangeStatus 状态流转
func (s *Service) ChangeStatus(ctx context.Context, id uint64, status string) (*Post, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus.WithData("status", status)
	}
	return s.update(ctx, id, map[string]any{"status": status}, EventPostStatusChanged)
}

// Feature 设为精选，until 为 nil 表示长期有效
func (s *Service) Feature(ctx context.Context, id uint64, until *time.Time) (*Post, error) {
	now := s.clock()
	var end *time.Time
	if until != nil {
		if !until.After(now) {
			return nil, ErrInvalidInput.WithMsg("精选截止时间必须晚于当前时间")
		}
		u := until.UTC()
		end = &u
	}
	return s.update(ctx, id, map[string]any{
		"is_featured":    true,
		"featured_at":    now,
		"featured_until": end,
	}, EventPostFeatured)
}

// Unfeature 取消精选
func (s *Service) Unfeature(ctx context.Context, id uint64) (*Post, error) {
	return s.update(ctx, id, map[string]any{
		"is_featured":    false,
		"featured_until": nil,
	}, EventPostUnfeatured)
}

// Delete 软删除
func (s *Service) Delete(ctx context.Context, id uint64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, database.ErrRecordNotFound) {
		return ErrPostNotFound
	}
	if err != nil {
		return ErrStorage.Wrap(err)
	}
	s.logger.InfoCtx(ctx, "post deleted", zap.Uint64("post_id", id))
	s.publish(ctx, newPostEvent(EventPostDeleted, s.clock(), id, 0))
	return nil
}

// Like 点赞，重复点赞返回 ErrAlreadyLiked
func (s *Service) Like(ctx context.Context, postID, userID uint64) error {
	if userID == 0 {
		return ErrInvalidInput.WithMsg("缺少用户身份")
	}
	now := s.clock()
	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.mustExist(ctx, s.repo.WithTx(tx), postID); err != nil {
			return err
		}
		if err := tx.Create(&Like{PostID: postID, UserID: userID, CreatedAt: now}).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return ErrAlreadyLiked
			}
			return ErrStorage.Wrap(err)
		}
		return bumpCounter(tx, postID, "like_count", 1)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, newPostEvent(EventPostLiked, now, postID, userID))
	return nil
}

// Unlike 取消点赞
func (s *Service) Unlike(ctx context.Context, postID, userID uint64) error {
	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&Like{})
		if res.Error != nil {
			return ErrStorage.Wrap(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotLiked
		}
		return bumpCounter(tx, postID, "like_count", -1)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, newPostEvent(EventPostUnliked, s.clock(), postID, userID))
	return nil
}

// AddComment 发表评论
func (s *Service) AddComment(ctx context.Context, postID uint64, in CommentInput) (*Comment, error) {
	in.Body = strings.TrimSpace(in.Body)
	if err := in.Validate(); err != nil {
		return nil, ErrInvalidInput.Wrap(err)
	}

	c := &Comment{PostID: postID, AuthorID: in.AuthorID, Body: in.Body, CreatedAt: s.clock()}
	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.mustExist(ctx, s.repo.WithTx(tx), postID); err != nil {
			return err
		}
		if err := tx.Create(c).Error; err != nil {
			return ErrStorage.Wrap(err)
		}
		return bumpCounter(tx, postID, "comment_count", 1)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, CommentEvent{
		BaseEvent: event.NewEventAt(EventCommentCreated, c.CreatedAt),
		CommentID: c.ID,
		PostID:    postID,
		AuthorID:  in.AuthorID,
	})
	return c, nil
}

// DeleteComment 删除评论
func (s *Service) DeleteComment(ctx context.Context, commentID uint64) error {
	var c Comment
	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&c, commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return ErrStorage.Wrap(err)
		}
		if err := tx.Delete(&c).Error; err != nil {
			return ErrStorage.Wrap(err)
		}
		return bumpCounter(tx, c.PostID, "comment_count", -1)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, CommentEvent{
		BaseEvent: event.NewEventAt(EventCommentDeleted, s.clock()),
		CommentID: c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
	})
	return nil
}

// ListComments 按时间正序分页（不缓存）
func (s *Service) ListComments(ctx context.Context, postID uint64, page, limit int) ([]Comment, int64, error) {
	if _, err := s.find(ctx, s.repo, postID); err != nil {
		return nil, 0, err
	}
	page = max(page, 1)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := s.db.WithContext(ctx).Model(&Comment{}).Where("post_id = ?", postID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, ErrStorage.Wrap(err)
	}
	comments := []Comment{}
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&comments).Error
	if err != nil {
		return nil, 0, ErrStorage.Wrap(err)
	}
	return comments, total, nil
}

// Follow 关注作者；重复关注是幂等的，不会再次触发事件
func (s *Service) Follow(ctx context.Context, followerID, followeeID uint64) error {
	if followerID == 0 || followeeID == 0 {
		return ErrInvalidInput.WithMsg("缺少用户身份")
	}
	if followerID == followeeID {
		return ErrSelfFollow
	}
	now := s.clock()
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Follow{FollowerID: followerID, FolloweeID: followeeID, CreatedAt: now})
	if res.Error != nil {
		return ErrStorage.Wrap(res.Error)
	}
	if res.RowsAffected > 0 {
		s.publish(ctx, FollowEvent{
			BaseEvent:  event.NewEventAt(EventUserFollowed, now),
			FollowerID: followerID,
			FolloweeID: followeeID,
		})
	}
	return nil
}

// Unfollow 取消关注，未关注时无操作
func (s *Service) Unfollow(ctx context.Context, followerID, followeeID uint64) error {
	res := s.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&Follow{})
	if res.Error != nil {
		return ErrStorage.Wrap(res.Error)
	}
	if res.RowsAffected > 0 {
		s.publish(ctx, FollowEvent{
			BaseEvent:  event.NewEventAt(EventUserUnfollowed, s.clock()),
			FollowerID: followerID,
			FolloweeID: followeeID,
		})
	}
	return nil
}

// ExpireFeatured 取消已到期的精选，返回处理数量
func (s *Service) ExpireFeatured(ctx context.Context, now time.Time) (int, error) {
	posts, err := s.repo.ExpiredFeatured(ctx, now)
	if err != nil {
		return 0, ErrStorage.Wrap(err)
	}
	if len(posts) == 0 {
		return 0, nil
	}

	ids := make([]uint64, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	err = s.db.WithContext(ctx).Model(&Post{}).
		Where("id IN ? AND is_featured = ?", ids, true).
		Updates(map[string]any{"is_featured": false}).Error
	if err != nil {
		return 0, ErrStorage.Wrap(err)
	}

	for _, id := range ids {
		s.publish(ctx, newPostEvent(EventPostUnfeatured, now.UTC(), id, 0))
	}
	s.logger.InfoCtx(ctx, "expired featured posts", zap.Int("count", len(ids)))
	return len(ids), nil
}

// Get 单条帖子（缓存）
func (s *Service) Get(ctx context.Context, id uint64) (*feed.Item, error) {
	key := cache.ItemKey(id)
	var item feed.Item
	if s.cache != nil && s.cache.GetValue(ctx, key, &item) {
		return &item, nil
	}

	p, err := s.find(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	item = p.Item()
	if s.cache != nil {
		s.cache.SetValue(ctx, key, item, s.cache.TTL(cache.PostItemSpec))
	}
	return &item, nil
}

// RecordView 浏览计数，不触发缓存失效（浏览数的滞后由 TTL 限定）
func (s *Service) RecordView(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Model(&Post{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if res.Error != nil {
		return ErrStorage.Wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (s *Service) find(ctx context.Context, repo *Repository, id uint64) (*Post, error) {
	p, err := repo.FindByID(ctx, id)
	if errors.Is(err, database.ErrRecordNotFound) {
		return nil, ErrPostNotFound.WithData("post_id", id)
	}
	if err != nil {
		return nil, ErrStorage.Wrap(err)
	}
	return p, nil
}

func (s *Service) mustExist(ctx context.Context, repo *Repository, id uint64) error {
	ok, err := repo.Exists(ctx, id)
	if err != nil {
		return ErrStorage.Wrap(err)
	}
	if !ok {
		return ErrPostNotFound.WithData("post_id", id)
	}
	return nil
}

func (s *Service) update(ctx context.Context, id uint64, updates map[string]any, eventName string) (*Post, error) {
	var updated *Post
	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		p, err := s.find(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := repo.Update(ctx, p, updates); err != nil {
			return ErrStorage.Wrap(err)
		}
		updated, err = s.find(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.DebugCtx(ctx, "post updated", zap.Uint64("post_id", id), zap.String("event", eventName))
	s.publish(ctx, newPostEvent(eventName, s.clock(), id, 0))
	return updated, nil
}

func (s *Service) publish(ctx context.Context, e event.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Dispatch(ctx, e); err != nil {
		s.logger.WarnCtx(ctx, "post event dispatch failed", zap.String("event", e.Name()), zap.Error(err))
	}
}

// bumpCounter 计数器增减，不低于 0
func bumpCounter(tx *gorm.DB, postID uint64, column string, delta int) error {
	expr := gorm.Expr(column+" + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN "+column+" >= ? THEN "+column+" - ? ELSE 0 END", -delta, -delta)
	}
	err := tx.Model(&Post{}).Where("id = ?", postID).UpdateColumn(column, expr).Error
	if err != nil {
		return ErrStorage.Wrap(err)
	}
	return nil
}
