package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NewObserved 创建写入内存的 Logger，供单元测试断言日志
//
//	log, logs := logger.NewObserved("cache")
//	store := cache.NewTieredStore(..., log)
//	assert.Equal(t, 1, logs.FilterMessage("remote cache unavailable").Len())
func NewObserved(module string) (*CtxZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewCtxZapLogger(zap.New(core), module), logs
}
