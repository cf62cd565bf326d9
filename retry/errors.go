package retry

import (
	"fmt"
	"strings"
)

// Error 全部尝试失败，Error() 与 Unwrap() 都指向最后一次错误
type Error struct {
	Errors   []error
	Attempts int
}

func (e *Error) Error() string {
	if len(e.Errors) == 0 {
		return "retry failed: no errors"
	}
	return fmt.Sprintf("after %d attempts: %v", e.Attempts, e.Errors[len(e.Errors)-1])
}

func (e *Error) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}

// AllErrors 每次尝试的错误明细
func (e *Error) AllErrors() string {
	var b strings.Builder
	fmt.Fprintf(&b, "retry failed after %d attempts:", e.Attempts)
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "\n  attempt %d: %v", i+1, err)
	}
	return b.String()
}
