package feed

import (
	"context"

	"github.com/KOMKZ/go-yogan-feed/logger"
	"go.uber.org/zap"
)

// Assembler 按 page/limit 把精选列表与常规列表拼成一页
//
// 精选列表完整取出（数量小），按绝对区间 [start, end) 切出本页的精选部分，
// 剩余名额从常规来源补齐，常规来源的 offset 为 start-F（不小于 0）。
// 常规查询显式排除全部精选 id，保证两个子集不重叠。
type Assembler struct {
	source Source
	logger *logger.CtxZapLogger
}

func NewAssembler(source Source, log *logger.CtxZapLogger) *Assembler {
	if log == nil {
		log = logger.GetLogger("feed")
	}
	return &Assembler{source: source, logger: log}
}

// Assemble req 需已规范化
// 精选来源失败时降级为纯常规分页；常规来源失败返回 ErrRegularSource
func (a *Assembler) Assemble(ctx context.Context, req PageRequest) (*PageResult, error) {
	start, end, err := pageRange(req)
	if err != nil {
		return nil, err
	}
	featured := a.featured(ctx, req)
	f := len(featured)

	var featuredSlice []Item
	if start < f {
		featuredSlice = featured[start:min(f, end)]
	}

	regularLimit := req.Limit - len(featuredSlice)
	regularOffset := max(0, start-f)
	exclude := itemIDs(featured)

	var (
		regular      []Item
		regularTotal int64
	)
	if regularLimit > 0 {
		regular, regularTotal, err = a.source.QueryRegular(ctx, req.Filters, req.Sort, exclude, regularLimit, regularOffset)
	} else {
		// 本页全部是精选，只需要总数
		regularTotal, err = a.source.CountRegular(ctx, req.Filters, exclude)
	}
	if err != nil {
		a.logger.ErrorCtx(ctx, "regular source query failed",
			zap.Int("page", req.Page),
			zap.Int("limit", req.Limit),
			zap.Error(err))
		return nil, ErrRegularSource.Wrap(err)
	}
	if len(regular) > regularLimit {
		regular = regular[:regularLimit]
	}

	items := make([]Item, 0, len(featuredSlice)+len(regular))
	items = append(items, featuredSlice...)
	items = append(items, regular...)

	return newPageResult(items, req.Page, req.Limit, int64(f)+regularTotal, len(featuredSlice)), nil
}

// AssembleFeatured 只分页精选列表
func (a *Assembler) AssembleFeatured(ctx context.Context, req PageRequest) (*PageResult, error) {
	start, end, err := pageRange(req)
	if err != nil {
		return nil, err
	}
	featured, err := a.source.QueryFeatured(ctx, req.Filters, req.Sort)
	if err != nil {
		return nil, ErrRegularSource.WithMsg("精选内容加载失败").Wrap(err)
	}
	f := len(featured)
	start, end = min(start, f), min(end, f)
	items := append([]Item(nil), featured[start:end]...)
	return newPageResult(items, req.Page, req.Limit, int64(f), len(items)), nil
}

func (a *Assembler) featured(ctx context.Context, req PageRequest) []Item {
	if !req.FeaturedFirst {
		return nil
	}
	items, err := a.source.QueryFeatured(ctx, req.Filters, req.Sort)
	if err != nil {
		a.logger.WarnCtx(ctx, "featured source failed, serving regular items only", zap.Error(err))
		return nil
	}
	return items
}

// pageRange 本页的绝对区间 [start, end)，溢出时返回 ErrInvalidPageRequest
func pageRange(req PageRequest) (start, end int, err error) {
	start = (req.Page - 1) * req.Limit
	end = start + req.Limit
	if req.Page < 1 || req.Limit < 1 || start < 0 || end < start {
		return 0, 0, ErrInvalidPageRequest.WithMsgf("page %d with limit %d is out of range", req.Page, req.Limit)
	}
	return start, end, nil
}

func newPageResult(items []Item, page, limit int, total int64, featuredCount int) *PageResult {
	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	if items == nil {
		items = []Item{}
	}
	return &PageResult{
		Items:         items,
		Page:          page,
		Limit:         limit,
		TotalCount:    total,
		TotalPages:    totalPages,
		HasNext:       page < totalPages,
		HasPrev:       page > 1,
		FeaturedCount: featuredCount,
	}
}

func itemIDs(items []Item) []uint64 {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uint64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
