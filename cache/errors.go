package cache

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-feed/errcode"
)

// ModuleCode 缓存模块码
const ModuleCode = 70

const (
	ErrCodeCacheMiss         = 1
	ErrCodeRemoteUnavailable = 2
	ErrCodeMalformedEntry    = 3
	ErrCodeSerialize         = 4
	ErrCodeConfigInvalid     = 5
	ErrCodeUnknownParam      = 6
)

// 以下错误只在缓存包内部流转，公开的 TieredStore 方法从不向调用方返回它们
var (
	// ErrCacheMiss 未命中（不存在或已过期）
	ErrCacheMiss = errcode.New(ModuleCode, ErrCodeCacheMiss,
		"cache", "error.cache.miss", "缓存未命中", http.StatusOK)

	// ErrRemoteUnavailable 远端层不可达（连接错误、超时、熔断打开）
	ErrRemoteUnavailable = errcode.New(ModuleCode, ErrCodeRemoteUnavailable,
		"cache", "error.cache.remote_unavailable", "远端缓存不可用", http.StatusServiceUnavailable)

	// ErrMalformedEntry 存储的值无法反序列化
	ErrMalformedEntry = errcode.New(ModuleCode, ErrCodeMalformedEntry,
		"cache", "error.cache.malformed_entry", "缓存数据损坏", http.StatusInternalServerError)

	ErrSerialize = errcode.New(ModuleCode, ErrCodeSerialize,
		"cache", "error.cache.serialize", "序列化失败", http.StatusInternalServerError)

	ErrConfigInvalid = errcode.New(ModuleCode, ErrCodeConfigInvalid,
		"cache", "error.cache.config_invalid", "缓存配置无效", http.StatusInternalServerError)

	// ErrUnknownParam 参数未在 KeySpec 中声明
	ErrUnknownParam = errcode.New(ModuleCode, ErrCodeUnknownParam,
		"cache", "error.cache.unknown_param", "缓存键参数未声明", http.StatusInternalServerError)
)
