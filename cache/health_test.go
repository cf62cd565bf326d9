package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthChecker(t *testing.T) {
	ctx := context.Background()

	local := newFixture(t, false)
	assert.Equal(t, "cache", NewHealthChecker(local.store).Name())
	assert.NoError(t, NewHealthChecker(local.store).Check(ctx), "local only is always healthy")

	f := newFixture(t, true)
	hc := NewHealthChecker(f.store)
	assert.NoError(t, hc.Check(ctx))

	f.mr.SetError("injected failure")
	for i := 0; i < 3; i++ {
		f.store.Get(ctx, "k")
	}
	err := hc.Check(ctx)
	assert.ErrorContains(t, err, "circuit open")
}
