package redis

import (
	"context"
	"errors"
	"fmt"
)

// HealthChecker 检查指定实例（为空时检查全部）
type HealthChecker struct {
	manager   *Manager
	instances []string
}

func NewHealthChecker(manager *Manager, instances ...string) *HealthChecker {
	return &HealthChecker{manager: manager, instances: instances}
}

func (h *HealthChecker) Name() string { return "redis" }

func (h *HealthChecker) Check(ctx context.Context) error {
	if h.manager == nil {
		return fmt.Errorf("redis manager not initialized")
	}
	names := h.instances
	if len(names) == 0 {
		names = h.manager.Names()
	}

	var errs []error
	for _, name := range names {
		client := h.manager.Client(name)
		if client == nil {
			errs = append(errs, fmt.Errorf("%s: instance not configured", name))
			continue
		}
		if err := client.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
