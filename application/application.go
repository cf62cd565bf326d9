// Package application 应用启动框架：配置、DI 容器、HTTP 服务与生命周期
package application

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/KOMKZ/go-yogan-feed/di"
	"github.com/KOMKZ/go-yogan-feed/health"
	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/KOMKZ/go-yogan-feed/middleware"
	"github.com/KOMKZ/go-yogan-feed/post"
	"github.com/KOMKZ/go-yogan-feed/scheduler"
	"github.com/KOMKZ/go-yogan-feed/telemetry"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Application 内容流服务应用
type Application struct {
	cfg      *AppConfig
	injector *do.RootScope
	logger   *logger.CtxZapLogger
	routers  *Manager

	httpServer *HTTPServer

	ctx       context.Context
	cancel    context.CancelFunc
	state     AppState
	mu        sync.RWMutex
	startedAt time.Time

	onReady    func(*Application) error
	onShutdown func(context.Context) error
}

// AppState 应用状态
type AppState int

const (
	StateInit AppState = iota
	StateSetup
	StateRunning
	StateStopping
	StateStopped
)

func (s AppState) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateSetup:
		return "Setup"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// New 创建应用：注册全部 Provider 并初始化全局 logger
func New(cfg *AppConfig) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	injector := di.New()
	registerProviders(injector, cfg)

	// logger 最先就绪，后续组件与 gin 适配器都走全局 Manager
	mgr, err := do.Invoke[*logger.Manager](injector)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("init logger: %w", err)
	}

	return &Application{
		cfg:      cfg,
		injector: injector,
		logger:   mgr.GetLogger("app"),
		routers:  NewManager(),
		ctx:      ctx,
		cancel:   cancel,
		state:    StateInit,
	}, nil
}

// registerProviders 按模块注册 Provider，实例在首次 Invoke 时创建
func registerProviders(injector *do.RootScope, cfg *AppConfig) {
	do.Provide(injector, di.ProvideLoggerManager(cfg.Logger))
	do.Provide(injector, di.ProvideTelemetry(cfg.Telemetry))
	do.Provide(injector, di.ProvideDatabaseManager(cfg.Database))
	do.Provide(injector, di.ProvideDB(di.DefaultDatabase))
	do.Provide(injector, di.ProvideRedisManager(cfg.Redis))
	do.Provide(injector, di.ProvideCacheStore(cfg.Cache))
	do.Provide(injector, di.ProvideDispatcher(cfg.Event))
	do.Provide(injector, di.ProvideInvalidator(cfg.Cache))
	do.Provide(injector, di.ProvidePostService)
	do.Provide(injector, di.ProvideFeedService(cfg.Feed))
	do.Provide(injector, di.ProvideScheduler(cfg.Scheduler))
	do.Provide(injector, di.ProvideHealth(cfg.Health))
}

// Injector samber/do 注入器
func (a *Application) Injector() *do.RootScope {
	return a.injector
}

// Config 当前配置
func (a *Application) Config() *AppConfig {
	return a.cfg
}

// Logger 应用 logger
func (a *Application) Logger() *logger.CtxZapLogger {
	return a.logger
}

// Context 应用根 context，关闭信号到达时取消
func (a *Application) Context() context.Context {
	return a.ctx
}

// HTTPServer 运行中的 HTTP 服务（未启动时为 nil）
func (a *Application) HTTPServer() *HTTPServer {
	return a.httpServer
}

// Routes 追加路由模块
func (a *Application) Routes(routers ...Router) *Application {
	a.routers.Add(routers...)
	return a
}

// OnReady 启动完成回调
func (a *Application) OnReady(fn func(*Application) error) *Application {
	a.onReady = fn
	return a
}

// OnShutdown 关闭前回调
func (a *Application) OnShutdown(fn func(context.Context) error) *Application {
	a.onShutdown = fn
	return a
}

// Migrate 自动迁移帖子相关表
func (a *Application) Migrate(ctx context.Context) error {
	db, err := do.Invoke[*gorm.DB](a.injector)
	if err != nil {
		return err
	}
	if err := post.AutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	a.logger.InfoCtx(ctx, "database migrated")
	return nil
}

// Setup 创建全部业务组件，配置错误在此暴露
func (a *Application) Setup() error {
	a.setState(StateSetup)

	if a.cfg.App.AutoMigrate {
		if err := a.Migrate(a.ctx); err != nil {
			return err
		}
	}

	agg, err := do.Invoke[*health.Aggregator](a.injector)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	agg.SetMetadata("service", a.cfg.App.Name)
	if a.cfg.App.Version != "" {
		agg.SetMetadata("version", a.cfg.App.Version)
	}

	// 触发整条依赖链：post -> invalidator -> cache -> redis/database
	if _, err := do.Invoke[*scheduler.Scheduler](a.injector); err != nil {
		return fmt.Errorf("setup components: %w", err)
	}
	return nil
}

// RunNonBlocking 启动 HTTP 服务与定时任务后立即返回
func (a *Application) RunNonBlocking() error {
	a.startedAt = time.Now()
	if err := a.Setup(); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	tel := do.MustInvoke[*telemetry.Manager](a.injector)
	a.httpServer = NewHTTPServer(a.cfg.Server, a.cfg.Middleware, a.cfg.Httpx, tel)

	engine := a.httpServer.GetEngine()
	if a.cfg.Health.Enabled {
		middleware.RegisterHealthRoutes(engine, do.MustInvoke[*health.Aggregator](a.injector))
	}
	a.routers.Register(engine.Group(APIPrefix), a)

	if err := a.httpServer.Start(); err != nil {
		return err
	}

	if a.cfg.Scheduler.Enabled {
		do.MustInvoke[*scheduler.Scheduler](a.injector).Start()
	}

	a.setState(StateRunning)
	if a.onReady != nil {
		if err := a.onReady(a); err != nil {
			return fmt.Errorf("onReady failed: %w", err)
		}
	}

	fields := []zap.Field{
		zap.String("addr", a.httpServer.Addr()),
		zap.Duration("startup", time.Since(a.startedAt)),
	}
	if a.cfg.App.Version != "" {
		fields = append(fields, zap.String("version", a.cfg.App.Version))
	}
	a.logger.InfoCtx(a.ctx, "application started", fields...)
	return nil
}

// Run 启动并阻塞直到收到关闭信号
func (a *Application) Run() error {
	if err := a.RunNonBlocking(); err != nil {
		_ = a.Shutdown()
		return err
	}
	a.WaitShutdown()
	return a.Shutdown()
}

// WaitShutdown 等待 SIGINT/SIGTERM 或 Cancel
// 第二次信号强制退出
func (a *Application) WaitShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		a.logger.InfoCtx(a.ctx, "shutdown signal received", zap.String("signal", sig.String()))
		a.cancel()
		go func() {
			sig := <-quit
			a.logger.WarnCtx(context.Background(), "second signal received, forcing exit", zap.String("signal", sig.String()))
			os.Exit(1)
		}()
	case <-a.ctx.Done():
		a.logger.DebugCtx(context.Background(), "context cancelled, starting graceful shutdown")
	}
}

// Cancel 手动触发关闭
func (a *Application) Cancel() {
	a.cancel()
}

// Shutdown 优雅关闭：先停止接收请求，再按依赖逆序关闭容器
func (a *Application) Shutdown() error {
	a.setState(StateStopping)
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.ErrorCtx(ctx, "HTTP server close failed", zap.Error(err))
		}
	}

	if a.onShutdown != nil {
		if err := a.onShutdown(ctx); err != nil {
			a.logger.ErrorCtx(ctx, "OnShutdown callback failed", zap.Error(err))
		}
	}

	a.logger.InfoCtx(ctx, "application stopping")
	err := di.Shutdown(ctx, a.injector, a.logger)
	a.cancel()
	a.setState(StateStopped)
	return err
}

// GetState 当前状态（线程安全）
func (a *Application) GetState() AppState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *Application) setState(state AppState) {
	a.mu.Lock()
	old := a.state
	a.state = state
	a.mu.Unlock()

	a.logger.DebugCtx(a.ctx, "state changed",
		zap.String("from", old.String()),
		zap.String("to", state.String()))
}
