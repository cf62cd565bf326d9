package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const instrumentationName = "github.com/KOMKZ/go-yogan-feed/database"

// OtelPlugin GORM 插件：每条语句一个 client span
type OtelPlugin struct {
	tracer    trace.Tracer
	traceSQL  bool
	sqlMaxLen int
}

// NewOtelPlugin tracerProvider 为 nil 时使用全局 TracerProvider
func NewOtelPlugin(tracerProvider trace.TracerProvider) *OtelPlugin {
	if tracerProvider == nil {
		tracerProvider = otel.GetTracerProvider()
	}
	return &OtelPlugin{
		tracer:    tracerProvider.Tracer(instrumentationName),
		sqlMaxLen: 1000,
	}
}

func (p *OtelPlugin) WithTraceSQL(enabled bool) *OtelPlugin {
	p.traceSQL = enabled
	return p
}

func (p *OtelPlugin) WithSQLMaxLen(maxLen int) *OtelPlugin {
	if maxLen > 0 {
		p.sqlMaxLen = maxLen
	}
	return p
}

func (p *OtelPlugin) Name() string {
	return "otel"
}

// Initialize 在 create/query/update/delete/row/raw 的内置回调前后开启、结束 span
func (p *OtelPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := map[string][2]func() error{
		"create": {
			func() error { return cb.Create().Before("gorm:create").Register("otel:before_create", p.before("create")) },
			func() error { return cb.Create().After("gorm:create").Register("otel:after_create", p.after) },
		},
		"query": {
			func() error { return cb.Query().Before("gorm:query").Register("otel:before_query", p.before("query")) },
			func() error { return cb.Query().After("gorm:query").Register("otel:after_query", p.after) },
		},
		"update": {
			func() error { return cb.Update().Before("gorm:update").Register("otel:before_update", p.before("update")) },
			func() error { return cb.Update().After("gorm:update").Register("otel:after_update", p.after) },
		},
		"delete": {
			func() error { return cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("delete")) },
			func() error { return cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after) },
		},
		"row": {
			func() error { return cb.Row().Before("gorm:row").Register("otel:before_row", p.before("row")) },
			func() error { return cb.Row().After("gorm:row").Register("otel:after_row", p.after) },
		},
		"raw": {
			func() error { return cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("raw")) },
			func() error { return cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after) },
		},
	}
	for op, pair := range hooks {
		for _, register := range pair {
			if err := register(); err != nil {
				return fmt.Errorf("otel plugin %s: %w", op, err)
			}
		}
	}
	return nil
}

func (p *OtelPlugin) before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		spanName := "gorm." + operation
		if db.Statement.Table != "" {
			spanName += " " + db.Statement.Table
		}
		ctx, span := p.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
		span.SetAttributes(
			attribute.String("db.system", db.Dialector.Name()),
			attribute.String("db.operation", operation),
			attribute.String("db.table", db.Statement.Table),
		)
		db.Statement.Context = ctx
		db.InstanceSet("otel:span", span)
	}
}

func (p *OtelPlugin) after(db *gorm.DB) {
	v, ok := db.InstanceGet("otel:span")
	if !ok {
		return
	}
	span, ok := v.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if p.traceSQL {
		sql := strings.TrimSpace(db.Statement.SQL.String())
		if len(sql) > p.sqlMaxLen {
			sql = sql[:p.sqlMaxLen] + "..."
		}
		span.SetAttributes(attribute.String("db.statement", sql))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}
}
