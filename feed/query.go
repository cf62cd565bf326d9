package feed

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var digits = regexp.MustCompile(`^-?\d+$`)

// Query 原始查询参数（字符串形式，来自 URL）
type Query struct {
	Page          string `form:"page"`
	Limit         string `form:"limit"`
	Sort          string `form:"sort"`
	Status        string `form:"status"`
	Category      string `form:"category"`
	Q             string `form:"q"`
	FeaturedFirst string `form:"featured_first"`
}

// Validate page/limit 必须是整数
func (q Query) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Page, validation.Match(digits).Error("must be an integer"), validation.By(fitsInt)),
		validation.Field(&q.Limit, validation.Match(digits).Error("must be an integer"), validation.By(fitsInt)),
		validation.Field(&q.FeaturedFirst, validation.In("", "true", "false", "1", "0")),
	)
}

func fitsInt(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if _, err := strconv.Atoi(s); err != nil {
		return errors.New("out of range")
	}
	return nil
}

// PageRequest 解析为 PageRequest（尚未规范化）
// featured_first 缺省为 true
func (q Query) PageRequest() (PageRequest, error) {
	if err := q.Validate(); err != nil {
		return PageRequest{}, ErrInvalidPageRequest.Wrap(err)
	}
	req := PageRequest{
		Page:          atoi(q.Page),
		Limit:         atoi(q.Limit),
		Sort:          Sort(q.Sort),
		FeaturedFirst: q.FeaturedFirst != "false" && q.FeaturedFirst != "0",
		Filters: Filters{
			Status:   q.Status,
			Category: q.Category,
			Query:    q.Q,
		},
	}
	return req, nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

var spaces = regexp.MustCompile(`\s+`)

func normalizeFilters(f Filters) Filters {
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	if f.Status == "" {
		f.Status = StatusPublished
	}
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
	f.Query = strings.ToLower(spaces.ReplaceAllString(strings.TrimSpace(f.Query), " "))
	return f
}
