package errcode

import (
	"fmt"
	"sync"
)

// Registry 错误码注册表，防止不同模块的错误码冲突
type Registry struct {
	mu    sync.RWMutex
	codes map[int]string // code -> module:msgKey
}

var globalRegistry = NewRegistry()

// NewRegistry 创建独立注册表
func NewRegistry() *Registry {
	return &Registry{codes: make(map[int]string)}
}

// Register 在全局注册表登记错误码，冲突时 panic
// 用于包级变量初始化：var ErrX = errcode.Register(errcode.New(...))
func Register(err *LayeredError) *LayeredError {
	return globalRegistry.Register(err)
}

// Register 登记错误码；相同 code 且相同 msgKey 的重复登记是幂等的
func (r *Registry) Register(err *LayeredError) *LayeredError {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := err.Module() + ":" + err.MsgKey()
	if existing, ok := r.codes[err.Code()]; ok && existing != key {
		panic(fmt.Sprintf("error code conflict: %d registered as %s, cannot register as %s", err.Code(), existing, key))
	}
	r.codes[err.Code()] = key
	return err
}

// Count 已登记数量
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.codes)
}

// Lookup 按错误码查找 module:msgKey
func (r *Registry) Lookup(code int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.codes[code]
	return key, ok
}

// Lookup 在全局注册表中查找
func Lookup(code int) (string, bool) {
	return globalRegistry.Lookup(code)
}
