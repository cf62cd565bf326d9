// Package types 提供 HTTP 请求/响应的通用类型
package types

// 分页默认值
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageQuery 分页查询参数
type PageQuery struct {
	Page  int `form:"page" json:"page"`
	Limit int `form:"limit" json:"limit"`
}

// ApplyDefaults 规范化分页参数
func (p *PageQuery) ApplyDefaults() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
}

// Offset 偏移量
func (p PageQuery) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageMeta 分页元数据
type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPageMeta 创建分页元数据
func NewPageMeta(total int64, page, limit int) PageMeta {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PageMeta{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

// PageData 列表响应
type PageData[T any] struct {
	Items []T      `json:"items"`
	Meta  PageMeta `json:"meta"`
}

// NewPageData 创建列表响应，items 为 nil 时输出空数组
func NewPageData[T any](items []T, total int64, q PageQuery) PageData[T] {
	if items == nil {
		items = []T{}
	}
	return PageData[T]{Items: items, Meta: NewPageMeta(total, q.Page, q.Limit)}
}
