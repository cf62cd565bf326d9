package post

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CreateInput 创建帖子
type CreateInput struct {
	AuthorID uint64 `json:"-"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
	Status   string `json:"status"` // 缺省为 published
}

func (in *CreateInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if in.Status == "" {
		in.Status = StatusPublished
	}
}

func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.AuthorID, validation.Required),
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&in.Body, validation.RuneLength(0, 20000)),
		validation.Field(&in.Category, validation.RuneLength(0, 64)),
		validation.Field(&in.Status, validation.In(StatusDraft, StatusPublished, StatusArchived)),
	)
}

// UpdateInput 部分更新，nil 字段保持不变
type UpdateInput struct {
	Title    *string `json:"title"`
	Body     *string `json:"body"`
	Category *string `json:"category"`
}

func (in UpdateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.NilOrNotEmpty, validation.RuneLength(1, 200)),
		validation.Field(&in.Body, validation.RuneLength(0, 20000)),
		validation.Field(&in.Category, validation.RuneLength(0, 64)),
	)
}

func (in UpdateInput) updates() map[string]any {
	m := make(map[string]any)
	if in.Title != nil {
		m["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Body != nil {
		m["body"] = *in.Body
	}
	if in.Category != nil {
		m["category"] = strings.ToLower(strings.TrimSpace(*in.Category))
	}
	return m
}

// FeatureInput 设为精选；Until 为空表示不过期
type FeatureInput struct {
	Until *time.Time `json:"until"`
}

// CommentInput 发表评论
type CommentInput struct {
	AuthorID uint64 `json:"-"`
	Body     string `json:"body"`
}

func (in CommentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.AuthorID, validation.Required),
		validation.Field(&in.Body, validation.Required, validation.RuneLength(1, 2000)),
	)
}

// ValidStatus 状态是否合法
func ValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}
