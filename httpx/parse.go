package httpx

import (
	"github.com/gin-gonic/gin"
)

// Parse 依次绑定 path、query、body 参数，任一来源绑定失败都返回错误
// 没有对应 tag 的字段不会报错，只有值无法转换成字段类型时才失败
func Parse(c *gin.Context, req any) error {
	if len(c.Params) > 0 {
		if err := c.ShouldBindUri(req); err != nil {
			return err
		}
	}

	if len(c.Request.URL.RawQuery) > 0 {
		if err := c.ShouldBindQuery(req); err != nil {
			return err
		}
	}

	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			return err
		}
	}
	return nil
}
