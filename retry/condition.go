package retry

import "errors"

// RetryCondition 判断某次失败后是否继续重试
type RetryCondition interface {
	ShouldRetry(err error, attempt int) bool
}

// ConditionFunc 函数适配
type ConditionFunc func(err error, attempt int) bool

func (f ConditionFunc) ShouldRetry(err error, attempt int) bool { return f(err, attempt) }

// AlwaysRetry 任意错误都重试
func AlwaysRetry() RetryCondition {
	return ConditionFunc(func(err error, _ int) bool { return err != nil })
}

// SkipOn 命中任一错误（errors.Is）时立即放弃，其余错误重试
func SkipOn(targets ...error) RetryCondition {
	return ConditionFunc(func(err error, _ int) bool {
		if err == nil {
			return false
		}
		for _, t := range targets {
			if errors.Is(err, t) {
				return false
			}
		}
		return true
	})
}
