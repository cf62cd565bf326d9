// Package scheduler 后台定时任务
//
// 目前只有一个任务：周期性清理过期的精选帖子，清理结果经事件分发触发缓存失效。
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-feed/logger"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// JobFeaturedExpiry 精选过期任务名
const JobFeaturedExpiry = "featured-expiry"

// FeaturedExpirer 清理过期精选，返回处理条数
type FeaturedExpirer interface {
	ExpireFeatured(ctx context.Context, now time.Time) (int, error)
}

// Scheduler gocron 调度器封装
type Scheduler struct {
	cfg     Config
	sched   gocron.Scheduler
	expirer FeaturedExpirer
	now     func() time.Time
	logger  *logger.CtxZapLogger
}

// Option 调度器选项
type Option func(*Scheduler)

// WithClock 注入时钟
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New 创建调度器并注册任务，需调用 Start 启动
func New(cfg Config, expirer FeaturedExpirer, log *logger.CtxZapLogger, opts ...Option) (*Scheduler, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler config: %w", err)
	}
	if expirer == nil {
		return nil, fmt.Errorf("featured expirer is required")
	}
	if log == nil {
		log = logger.GetLogger("scheduler")
	}

	s := &Scheduler{
		cfg:     cfg,
		expirer: expirer,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  log,
	}
	for _, opt := range opts {
		opt(s)
	}

	sched, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithStopTimeout(cfg.StopTimeout),
		gocron.WithLogger(gocronLogger{l: log.GetZapLogger().Sugar()}),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	s.sched = sched

	if _, err := sched.NewJob(
		gocron.DurationJob(cfg.FeaturedExpiryInterval),
		gocron.NewTask(s.runFeaturedExpiry),
		gocron.WithName(JobFeaturedExpiry),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	); err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("register %s job: %w", JobFeaturedExpiry, err)
	}
	return s, nil
}

// Start 启动调度（非阻塞）
func (s *Scheduler) Start() {
	s.sched.Start()
	s.logger.Info("scheduler started",
		zap.Int("jobs", len(s.sched.Jobs())),
		zap.Duration("featured_expiry_interval", s.cfg.FeaturedExpiryInterval))
}

// Shutdown 停止调度，等待运行中的任务（受 StopTimeout 限制）
func (s *Scheduler) Shutdown() error {
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("scheduler shutdown: %w", err)
	}
	s.logger.Info("scheduler stopped")
	return nil
}

// RunFeaturedExpiry 立即执行一次精选清理
func (s *Scheduler) RunFeaturedExpiry(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()
	return s.expirer.ExpireFeatured(ctx, s.now())
}

func (s *Scheduler) runFeaturedExpiry() {
	ctx := context.Background()
	start := time.Now()
	n, err := s.RunFeaturedExpiry(ctx)
	if err != nil {
		s.logger.ErrorCtx(ctx, "featured expiry failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.InfoCtx(ctx, "expired featured posts",
			zap.Int("count", n), zap.Duration("duration", time.Since(start)))
	}
}

// gocronLogger 将 gocron 日志转到 zap
type gocronLogger struct {
	l *zap.SugaredLogger
}

func (g gocronLogger) Debug(msg string, args ...any) { g.l.Debugw(msg, args...) }
func (g gocronLogger) Info(msg string, args ...any)  { g.l.Infow(msg, args...) }
func (g gocronLogger) Warn(msg string, args ...any)  { g.l.Warnw(msg, args...) }
func (g gocronLogger) Error(msg string, args ...any) { g.l.Errorw(msg, args...) }
