package feed

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"time"
)

var errSourceDown = errors.New("source down")

// memSource 内存数据源，精选按 featured_at 倒序，常规按 id 倒序
type memSource struct {
	featured []Item
	regular  []Item

	featuredErr  error
	regularErr   error
	regularPanic bool
	block        chan struct{}

	featuredCalls atomic.Int32
	regularCalls  atomic.Int32
	countCalls    atomic.Int32
	lastExclude   []uint64
}

func newMemSource(featured, regular int) *memSource {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &memSource{}
	id := uint64(1)
	for i := 0; i < regular; i++ {
		s.regular = append(s.regular, Item{ID: id, Status: StatusPublished, CreatedAt: base.Add(time.Duration(id) * time.Minute)})
		id++
	}
	for i := 0; i < featured; i++ {
		at := base.Add(time.Duration(id) * time.Hour)
		s.featured = append(s.featured, Item{ID: id, Status: StatusPublished, IsFeatured: true, FeaturedAt: &at, CreatedAt: at})
		id++
	}
	slices.Reverse(s.featured)
	slices.Reverse(s.regular)
	return s
}

func (s *memSource) QueryFeatured(ctx context.Context, _ Filters, _ Sort) ([]Item, error) {
	s.featuredCalls.Add(1)
	if s.featuredErr != nil {
		return nil, s.featuredErr
	}
	return slices.Clone(s.featured), nil
}

// all 常规来源看到的全部条目：未排除的精选条目也算常规
func (s *memSource) all(exclude []uint64) []Item {
	var out []Item
	for _, it := range append(slices.Clone(s.featured), s.regular...) {
		if !slices.Contains(exclude, it.ID) {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b Item) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return out
}

func (s *memSource) QueryRegular(ctx context.Context, _ Filters, _ Sort, exclude []uint64, limit, offset int) ([]Item, int64, error) {
	s.regularCalls.Add(1)
	s.lastExclude = exclude
	if s.regularPanic {
		panic("regular source blew up")
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}
	if s.regularErr != nil {
		return nil, 0, s.regularErr
	}
	all := s.all(exclude)
	start := min(offset, len(all))
	end := min(start+limit, len(all))
	return slices.Clone(all[start:end]), int64(len(all)), nil
}

func (s *memSource) CountRegular(_ context.Context, _ Filters, exclude []uint64) (int64, error) {
	s.countCalls.Add(1)
	if s.regularErr != nil {
		return 0, s.regularErr
	}
	return int64(len(s.all(exclude))), nil
}
