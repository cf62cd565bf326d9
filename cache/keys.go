package cache

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Placeholder 缺省参数在 key 中的取值
const Placeholder = "all"

// Params 构建 key 的参数
type Params map[string]any

// KeySpec 某类资源的缓存键定义：参与 key 的参数按 Fields 顺序固定拼接
type KeySpec struct {
	Resource string
	Fields   []string
	TTL      time.Duration
}

// Key 构建确定性的 key
//
//	feed:general|page=1|limit=20|sort=newest|status=published|category=all|query=all|featured_first=true
//
// 未声明的参数返回 ErrUnknownParam；值经过规范化（"1" 与 1 得到同一个 key）并做 URL 转义，
// 因此参数值里不会出现分隔符或其他资源名
func (s KeySpec) Key(params Params) (string, error) {
	for name := range params {
		if !s.declares(name) {
			return "", ErrUnknownParam.WithMsgf("resource %s does not declare param %q", s.Resource, name)
		}
	}

	var sb strings.Builder
	sb.WriteString(s.Resource)
	for _, field := range s.Fields {
		sb.WriteByte('|')
		sb.WriteString(field)
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(normalizeValue(params[field])))
	}
	return sb.String(), nil
}

// MustKey 参数固定的调用点使用，未声明的参数直接 panic
func (s KeySpec) MustKey(params Params) string {
	key, err := s.Key(params)
	if err != nil {
		panic(err)
	}
	return key
}

// Pattern 资源的失效模式，匹配该资源的所有变体
func (s KeySpec) Pattern() string {
	return BuildPattern(s.Resource)
}

func (s KeySpec) declares(name string) bool {
	for _, f := range s.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// BuildPattern 资源名本身即子串匹配模式
func BuildPattern(resource string) string {
	return resource
}

func normalizeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return Placeholder
	case string:
		val = strings.TrimSpace(val)
		if val == "" {
			return Placeholder
		}
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return strconv.FormatInt(n, 10)
		}
		return val
	case fmt.Stringer:
		return normalizeValue(val.String())
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case *string:
		if val == nil {
			return Placeholder
		}
		return normalizeValue(*val)
	case *uint64:
		if val == nil {
			return Placeholder
		}
		return strconv.FormatUint(*val, 10)
	default:
		return normalizeValue(fmt.Sprint(val))
	}
}
