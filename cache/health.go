package cache

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

// HealthChecker 远端熔断器打开时视为异常（通常以 health.Optional 注册）
type HealthChecker struct {
	store *TieredStore
}

func NewHealthChecker(store *TieredStore) *HealthChecker {
	return &HealthChecker{store: store}
}

func (h *HealthChecker) Name() string { return "cache" }

func (h *HealthChecker) Check(context.Context) error {
	stats := h.store.Stats()
	if !stats.RemoteEnabled {
		return nil
	}
	if stats.BreakerState == gobreaker.StateOpen.String() {
		return fmt.Errorf("remote tier circuit open, serving from local tier (%d remote errors)", stats.RemoteErrors)
	}
	return nil
}
