package api

import (
	"github.com/KOMKZ/go-yogan-feed/cache"
	"github.com/gin-gonic/gin"
)

// CacheHandler 缓存运维接口
type CacheHandler struct {
	store *cache.TieredStore
}

func NewCacheHandler(store *cache.TieredStore) *CacheHandler {
	return &CacheHandler{store: store}
}

// Stats GET /cache/stats
func (h *CacheHandler) Stats(c *gin.Context, _ *struct{}) (*cache.Stats, error) {
	stats := h.store.Stats()
	return &stats, nil
}
