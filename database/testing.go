package database

import (
	"fmt"
	"strings"
	"sync/atomic"
)

var memorySeq atomic.Int64

// MemorySQLiteConfig 独立的内存 sqlite 实例（单连接共享缓存，供测试与本地运行）
func MemorySQLiteConfig(name string) Config {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	return Config{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, memorySeq.Add(1)),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
}
