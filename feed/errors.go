package feed

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-feed/errcode"
)

// ModuleCode feed 模块码
const ModuleCode = 71

var (
	// ErrRegularSource 常规内容查询失败，页面无内容可返回
	ErrRegularSource = errcode.Register(errcode.New(ModuleCode, 1,
		"feed", "error.feed.regular_source", "内容加载失败", http.StatusInternalServerError))

	ErrInvalidPageRequest = errcode.Register(errcode.New(ModuleCode, 2,
		"feed", "error.feed.invalid_page_request", "分页参数无效", http.StatusBadRequest))

	// ErrViewerRequired 关注流需要识别当前用户
	ErrViewerRequired = errcode.Register(errcode.New(ModuleCode, 3,
		"feed", "error.feed.viewer_required", "缺少用户身份", http.StatusUnauthorized))

	ErrQueryRequired = errcode.Register(errcode.New(ModuleCode, 4,
		"feed", "error.feed.query_required", "搜索关键词不能为空", http.StatusBadRequest))
)
