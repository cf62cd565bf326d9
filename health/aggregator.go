package health

import (
	"context"
	"maps"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Aggregator 并发执行检查项，按最严重的结果给出整体状态
type Aggregator struct {
	mu       sync.RWMutex
	checkers []Checker
	metadata map[string]any
	timeout  time.Duration
}

// NewAggregator timeout <= 0 时使用默认值
func NewAggregator(timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	return &Aggregator{timeout: timeout, metadata: make(map[string]any)}
}

// Register nil 忽略
func (a *Aggregator) Register(checkers ...Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range checkers {
		if c != nil {
			a.checkers = append(a.checkers, c)
		}
	}
}

// SetMetadata 随每次响应返回（服务名、版本号）
func (a *Aggregator) SetMetadata(key string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metadata[key] = value
}

// Check 执行全部检查，整体耗时受 timeout 约束
func (a *Aggregator) Check(ctx context.Context) *Response {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.mu.RLock()
	checkers := append([]Checker(nil), a.checkers...)
	metadata := maps.Clone(a.metadata)
	a.mu.RUnlock()

	results := make([]CheckResult, len(checkers))
	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			results[i] = runCheck(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	resp := &Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
		Checks:    make(map[string]CheckResult, len(results)),
		Metadata:  metadata,
	}
	for _, r := range results {
		resp.Checks[r.Name] = r
		if severity(r.Status) > severity(resp.Status) {
			resp.Status = r.Status
		}
	}
	return resp
}

func runCheck(ctx context.Context, c Checker) CheckResult {
	start := time.Now()
	err := c.Check(ctx)
	r := CheckResult{
		Name:      c.Name(),
		Status:    StatusHealthy,
		Message:   "OK",
		Timestamp: start,
		Duration:  time.Since(start),
	}
	if err == nil {
		return r
	}

	r.Error = err.Error()
	if _, optional := c.(optionalChecker); optional {
		r.Status = StatusDegraded
		r.Message = "optional dependency unavailable"
	} else {
		r.Status = StatusUnhealthy
		r.Message = "health check failed"
	}
	return r
}

func severity(s Status) int {
	switch s {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}
