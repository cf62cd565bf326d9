// Package cache 双层缓存：共享的远端层（Redis）在前，进程内有界 LRU 在后
//
// 远端层负责跨实例一致，本地层负责零延迟读和远端故障时的降级。
// 失效按资源名做子串匹配，粒度粗但正确；未及时失效的页面最多陈旧一个 TTL。
package cache

import (
	"context"
	"time"
)

// Store 单层存储后端
type Store interface {
	// Name 后端名称（local / remote）
	Name() string

	// Get 返回值与剩余 TTL；未命中返回 ErrCacheMiss
	Get(ctx context.Context, key string) ([]byte, time.Duration, error)

	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// DeleteByPattern 删除 key 中包含 pattern 子串的所有条目，无匹配时不报错
	DeleteByPattern(ctx context.Context, pattern string) error

	// Clear 清空本后端负责的所有 key
	Clear(ctx context.Context) error

	Close() error
}
