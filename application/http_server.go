package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/KOMKZ/go-yogan-feed/httpx"
	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/KOMKZ/go-yogan-feed/middleware"
	"github.com/KOMKZ/go-yogan-feed/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// HTTPServer 封装 Gin 引擎与 http.Server
type HTTPServer struct {
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	cfg        ServerConfig
	log        *logger.CtxZapLogger
}

// NewHTTPServer 创建 HTTP 服务并按顺序注册中间件
//
// 顺序：otelgin -> TraceID -> Viewer -> Metrics -> RequestLog -> ErrorLogging -> Recovery。
// tel 为 nil 或未启用时跳过 otelgin，指标回退到 noop Meter。
func NewHTTPServer(cfg ServerConfig, mwCfg MiddlewareConfig, httpxCfg httpx.ErrorLoggingConfig, tel *telemetry.Manager) *HTTPServer {
	// 接管 Gin 内核日志
	gin.DefaultWriter = logger.NewGinLogWriter("gin-route")
	gin.DefaultErrorWriter = logger.NewGinLogWriter("gin-internal")

	gin.SetMode(cfg.Mode)

	// gin.New() 而非 gin.Default()，日志与 Recovery 使用自定义版本
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	serverLog := logger.GetLogger("http")

	if tel != nil && tel.IsEnabled() {
		serviceName := tel.Config().ServiceName
		engine.Use(otelgin.Middleware(serviceName, otelgin.WithTracerProvider(tel.TracerProvider())))
		serverLog.Debug("otelgin middleware registered", zap.String("service_name", serviceName))
	}

	if mwCfg.TraceID.Enable {
		traceCfg := middleware.DefaultTraceConfig()
		if mwCfg.TraceID.TraceIDKey != "" {
			traceCfg.TraceIDKey = mwCfg.TraceID.TraceIDKey
		}
		if mwCfg.TraceID.TraceIDHeader != "" {
			traceCfg.TraceIDHeader = mwCfg.TraceID.TraceIDHeader
		}
		traceCfg.EnableResponseHeader = mwCfg.TraceID.EnableResponseHeader
		engine.Use(middleware.TraceID(traceCfg))
	}

	engine.Use(middleware.Viewer())

	if mwCfg.Metrics.Enabled && tel != nil {
		metrics, err := middleware.NewHTTPMetrics(tel.Meter("feedsvc/http"))
		if err != nil {
			serverLog.Warn("http metrics disabled", zap.Error(err))
		} else {
			engine.Use(metrics.Handler())
		}
	}

	if mwCfg.RequestLog.Enable {
		engine.Use(middleware.RequestLog(middleware.RequestLogConfig{
			SkipPaths:     mwCfg.RequestLog.SkipPaths,
			SlowThreshold: mwCfg.RequestLog.SlowThreshold,
		}, logger.GetLogger("gin-http")))
	}

	if httpxCfg.Enable {
		engine.Use(httpx.ErrorLoggingMiddleware(httpxCfg))
	}

	// 始终启用
	engine.Use(middleware.Recovery(logger.GetLogger("gin-error")))

	engine.NoRoute(httpx.NoRouteHandler())
	engine.NoMethod(httpx.NoMethodHandler())

	return &HTTPServer{
		engine: engine,
		cfg:    cfg,
		log:    serverLog,
	}
}

// GetEngine 获取 Gin 引擎（用于注册路由）
func (s *HTTPServer) GetEngine() *gin.Engine {
	return s.engine
}

// Start 非阻塞启动；端口占用等错误在返回前暴露
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("端口 %d 不可用: %w", s.cfg.Port, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server stopped unexpectedly", zap.Error(err))
		}
	}()

	s.log.Info("HTTP server started",
		zap.String("addr", ln.Addr().String()),
		zap.String("mode", s.cfg.Mode))
	return nil
}

// Addr 实际监听地址（端口为 0 时由系统分配）
func (s *HTTPServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown 优雅关闭，等待进行中的请求完成
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP Server 关闭失败: %w", err)
	}
	s.log.Debug("HTTP server closed")
	return nil
}

// ShutdownWithTimeout 带超时的优雅关闭
func (s *HTTPServer) ShutdownWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Shutdown(ctx)
}
