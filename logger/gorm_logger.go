package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger 实现 gorm logger.Interface，SQL 日志统一写入 feed_sql 模块
type GormLogger struct {
	log           *CtxZapLogger
	slowThreshold time.Duration
	logLevel      gormlogger.LogLevel
	enableAudit   bool
}

// GormLoggerConfig GORM Logger 配置
type GormLoggerConfig struct {
	SlowThreshold time.Duration       // 慢查询阈值，默认 200ms
	LogLevel      gormlogger.LogLevel
	EnableAudit   bool // 是否以 Debug 记录每条 SQL
}

// DefaultGormLoggerConfig 默认配置
func DefaultGormLoggerConfig() GormLoggerConfig {
	return GormLoggerConfig{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormlogger.Warn,
		EnableAudit:   false,
	}
}

// NewGormLogger 创建 GORM Logger，log 为空时使用全局 feed_sql 模块
func NewGormLogger(cfg GormLoggerConfig, log *CtxZapLogger) *GormLogger {
	if log == nil {
		log = GetLogger("feed_sql")
	}
	return &GormLogger{
		log:           log,
		slowThreshold: cfg.SlowThreshold,
		logLevel:      cfg.LogLevel,
		enableAudit:   cfg.EnableAudit,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	n := *l
	n.logLevel = level
	return &n
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Info {
		l.log.DebugCtx(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Warn {
		l.log.WarnCtx(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Error {
		l.log.ErrorCtx(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace 记录每条 SQL：错误、慢查询、审计
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("sql", sql),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
	}

	switch {
	case err != nil && l.logLevel >= gormlogger.Error:
		// RecordNotFound 属于正常业务分支
		if !errors.Is(err, gormlogger.ErrRecordNotFound) {
			l.log.ErrorCtx(ctx, "SQL 执行错误", append(fields, zap.Error(err))...)
		} else if l.enableAudit {
			l.log.DebugCtx(ctx, "SQL 执行", fields...)
		}
	case l.slowThreshold != 0 && elapsed > l.slowThreshold && l.logLevel >= gormlogger.Warn:
		fields = append(fields, zap.Duration("threshold", l.slowThreshold))
		if elapsed > l.slowThreshold*2 {
			l.log.ErrorCtx(ctx, "严重慢查询", fields...)
		} else {
			l.log.WarnCtx(ctx, "慢查询检测", fields...)
		}
	case l.logLevel >= gormlogger.Info && l.enableAudit:
		l.log.DebugCtx(ctx, "SQL 执行", fields...)
	}
}
