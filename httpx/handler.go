package httpx

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-feed/validator"
	"github.com/gin-gonic/gin"
)

// HandlerFunc 泛型 handler：Req 支持 uri/form/json tag，实现 Validate() 时自动校验
type HandlerFunc[Req any, Resp any] func(c *gin.Context, req *Req) (*Resp, error)

// Wrap 解析、校验、调用并以 200 响应
func Wrap[Req any, Resp any](handler HandlerFunc[Req, Resp]) gin.HandlerFunc {
	return wrapStatus(http.StatusOK, handler)
}

// WrapCreated 创建类接口，成功返回 201
func WrapCreated[Req any, Resp any](handler HandlerFunc[Req, Resp]) gin.HandlerFunc {
	return wrapStatus(http.StatusCreated, handler)
}

// WrapNoContent 无响应数据的操作（删除、点赞等），data 为空对象
func WrapNoContent[Req any](handler func(c *gin.Context, req *Req) error) gin.HandlerFunc {
	return Wrap(func(c *gin.Context, req *Req) (*struct{}, error) {
		if err := handler(c, req); err != nil {
			return nil, err
		}
		return &struct{}{}, nil
	})
}

func wrapStatus[Req any, Resp any](status int, handler HandlerFunc[Req, Resp]) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := bind[Req](c)
		if err != nil {
			HandleError(c, err)
			return
		}
		resp, err := handler(c, req)
		if err != nil {
			HandleError(c, err)
			return
		}
		if status == http.StatusCreated {
			CreatedJson(c, resp)
			return
		}
		OkJson(c, resp)
	}
}

// bind 绑定失败返回 ErrBadRequest，校验失败返回 validator.ErrValidationFailed
func bind[Req any](c *gin.Context) (*Req, error) {
	req := new(Req)
	if err := Parse(c, req); err != nil {
		return nil, ErrBadRequest.WithMsgf("请求参数错误: %v", err).Wrap(err)
	}
	if v, ok := any(req).(validator.Validatable); ok {
		if err := validator.ValidateRequest(v); err != nil {
			return nil, err
		}
	}
	return req, nil
}
