package middleware

import (
	"strconv"

	"github.com/KOMKZ/go-yogan-feed/httpx"
	"github.com/gin-gonic/gin"
)

// ViewerHeader 访问者身份头（由网关注入，本服务不做认证）
const ViewerHeader = "X-User-ID"

const viewerKey = "viewer_id"

// Viewer 解析 X-User-ID；缺失或非法时视为匿名（0）
func Viewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader(ViewerHeader); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
				c.Set(viewerKey, id)
			}
		}
		c.Next()
	}
}

// ViewerID 当前访问者，匿名返回 0
func ViewerID(c *gin.Context) uint64 {
	return c.GetUint64(viewerKey)
}

// RequireViewer 要求已识别的访问者，否则 401
func RequireViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ViewerID(c) == 0 {
			c.Abort()
			httpx.ErrorJson(c, httpx.ErrUnauthorized)
			return
		}
		c.Next()
	}
}
