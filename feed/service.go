package feed

import (
	"context"

	"github.com/KOMKZ/go-yogan-feed/cache"
	"github.com/KOMKZ/go-yogan-feed/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Service 内容流读取入口
//
// 每个入口：构建 key -> 查缓存 -> 未命中时组装并回写。
// 同一个 key 的并发未命中只计算一次；计算在脱离调用方取消的 context 上进行，
// 调用方取消后直接返回 ctx.Err()，计算继续完成并写入缓存。
type Service struct {
	assembler *Assembler
	cache     *cache.TieredStore
	cfg       Config
	group     singleflight.Group
	logger    *logger.CtxZapLogger
}

func NewService(source Source, store *cache.TieredStore, cfg Config, log *logger.CtxZapLogger) *Service {
	if log == nil {
		log = logger.GetLogger("feed")
	}
	cfg.ApplyDefaults()
	return &Service{
		assembler: NewAssembler(source, log),
		cache:     store,
		cfg:       cfg,
		logger:    log,
	}
}

// Config 生效中的配置
func (s *Service) Config() Config {
	return s.cfg
}

// GetPage 综合内容流
func (s *Service) GetPage(ctx context.Context, req PageRequest) (*PageResult, error) {
	req = s.cfg.Normalize(req)
	req.Filters.FollowerID = 0
	params := pageParams(req)
	params["featured_first"] = req.FeaturedFirst
	return s.load(ctx, cache.FeedGeneralSpec, params, func(ctx context.Context) (*PageResult, error) {
		return s.assembler.Assemble(ctx, req)
	})
}

// GetFollowing 关注流，viewerID 必填
func (s *Service) GetFollowing(ctx context.Context, viewerID uint64, req PageRequest) (*PageResult, error) {
	if viewerID == 0 {
		return nil, ErrViewerRequired
	}
	req = s.cfg.Normalize(req)
	req.Filters.FollowerID = viewerID
	params := pageParams(req)
	params["featured_first"] = req.FeaturedFirst
	params["user_id"] = viewerID
	return s.load(ctx, cache.FeedFollowingSpec, params, func(ctx context.Context) (*PageResult, error) {
		return s.assembler.Assemble(ctx, req)
	})
}

// GetFeatured 只含精选内容
func (s *Service) GetFeatured(ctx context.Context, req PageRequest) (*PageResult, error) {
	req = s.cfg.Normalize(req)
	req.Filters.FollowerID = 0
	return s.load(ctx, cache.FeedFeaturedSpec, pageParams(req), func(ctx context.Context) (*PageResult, error) {
		return s.assembler.AssembleFeatured(ctx, req)
	})
}

// Search 关键词搜索，结果同样精选在前
func (s *Service) Search(ctx context.Context, req PageRequest) (*PageResult, error) {
	req = s.cfg.Normalize(req)
	if req.Filters.Query == "" {
		return nil, ErrQueryRequired
	}
	req.Filters.FollowerID = 0
	params := pageParams(req)
	params["featured_first"] = req.FeaturedFirst
	return s.load(ctx, cache.PostSearchSpec, params, func(ctx context.Context) (*PageResult, error) {
		return s.assembler.Assemble(ctx, req)
	})
}

func pageParams(req PageRequest) cache.Params {
	return cache.Params{
		"page":     req.Page,
		"limit":    req.Limit,
		"sort":     string(req.Sort),
		"status":   req.Filters.Status,
		"category": req.Filters.Category,
		"query":    req.Filters.Query,
	}
}

func (s *Service) load(ctx context.Context, ks cache.KeySpec, params cache.Params, compute func(context.Context) (*PageResult, error)) (*PageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := ks.Key(params)
	if err != nil {
		s.logger.WarnCtx(ctx, "cache key build failed, bypassing cache",
			zap.String("resource", ks.Resource), zap.Error(err))
		return compute(ctx)
	}

	var cached PageResult
	if s.cache.GetValue(ctx, key, &cached) {
		return &cached, nil
	}

	// DoChan 内的 panic 会在新 goroutine 上重新抛出，外层 Recovery 接不住，这里转成错误
	ch := s.group.DoChan(key, func() (_ any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.ErrorCtx(ctx, "page assembly panicked", zap.String("key", key), zap.Any("panic", rec))
				err = ErrRegularSource
			}
		}()
		computeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RequestTimeout)
		defer cancel()

		result, err := compute(computeCtx)
		if err != nil {
			return nil, err
		}
		s.cache.SetValue(computeCtx, key, result, s.cache.TTL(ks))
		return result, nil
	})

	select {
	case <-ctx.Done():
		s.logger.DebugCtx(ctx, "caller gone before page was assembled", zap.String("key", key))
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		result := *r.Val.(*PageResult)
		if r.Shared {
			s.logger.DebugCtx(ctx, "page shared with concurrent request", zap.String("key", key))
		}
		return &result, nil
	}
}
