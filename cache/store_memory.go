package cache

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore 进程内有界 LRU，每个条目独立过期
// 容量满时按 LRU 淘汰，与 TTL 无关
type MemoryStore struct {
	cache *lru.Cache[string, memoryItem]
	now   func() time.Time
}

// MemoryOption MemoryStore 选项
type MemoryOption func(*MemoryStore)

// WithClock 注入时钟（测试过期）
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore maxEntries 必须大于 0
func NewMemoryStore(maxEntries int, opts ...MemoryOption) (*MemoryStore, error) {
	c, err := lru.New[string, memoryItem](maxEntries)
	if err != nil {
		return nil, ErrConfigInvalid.Wrap(err)
	}
	s := &MemoryStore{cache: c, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *MemoryStore) Name() string {
	return "local"
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, time.Duration, error) {
	item, ok := s.cache.Get(key)
	if !ok {
		return nil, 0, ErrCacheMiss
	}
	remaining := item.expiresAt.Sub(s.now())
	if remaining <= 0 {
		s.cache.Remove(key)
		return nil, 0, ErrCacheMiss
	}
	return item.value, remaining, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		s.cache.Remove(key)
		return nil
	}
	s.cache.Add(key, memoryItem{value: value, expiresAt: s.now().Add(ttl)})
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

func (s *MemoryStore) DeleteByPattern(_ context.Context, pattern string) error {
	for _, key := range s.cache.Keys() {
		if strings.Contains(key, pattern) {
			s.cache.Remove(key)
		}
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.cache.Purge()
	return nil
}

// Len 当前条目数（含未被访问到的过期条目）
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

func (s *MemoryStore) Close() error {
	s.cache.Purge()
	return nil
}
