package post

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-feed/errcode"
)

// ModuleCode post 模块码
const ModuleCode = 72

var (
	ErrPostNotFound = errcode.Register(errcode.New(ModuleCode, 1,
		"post", "error.post.not_found", "帖子不存在", http.StatusNotFound))

	ErrInvalidStatus = errcode.Register(errcode.New(ModuleCode, 2,
		"post", "error.post.invalid_status", "无效的帖子状态", http.StatusBadRequest))

	ErrAlreadyLiked = errcode.Register(errcode.New(ModuleCode, 3,
		"post", "error.post.already_liked", "已经点过赞", http.StatusConflict))

	ErrNotLiked = errcode.Register(errcode.New(ModuleCode, 4,
		"post", "error.post.not_liked", "尚未点赞", http.StatusNotFound))

	ErrSelfFollow = errcode.Register(errcode.New(ModuleCode, 5,
		"post", "error.post.self_follow", "不能关注自己", http.StatusBadRequest))

	ErrCommentNotFound = errcode.Register(errcode.New(ModuleCode, 6,
		"post", "error.post.comment_not_found", "评论不存在", http.StatusNotFound))

	// ErrInvalidInput 请求参数校验失败，详细原因在 cause 中
	ErrInvalidInput = errcode.Register(errcode.New(ModuleCode, 7,
		"post", "error.post.invalid_input", "参数错误", http.StatusBadRequest))

	ErrStorage = errcode.Register(errcode.New(ModuleCode, 8,
		"post", "error.post.storage", "数据存储失败", http.StatusInternalServerError))
)
