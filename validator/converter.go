// Package validator 提供统一的参数校验和错误转换
package validator

import (
	"errors"

	"github.com/KOMKZ/go-yogan-feed/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrValidationFailed 参数校验失败，字段详情在 data.fields
var ErrValidationFailed = errcode.Register(errcode.New(
	10, 1010, "common", "error.common.validation_failed", "参数校验失败", 400,
))

// Validatable 可校验接口
type Validatable interface {
	Validate() error
}

// ValidateRequest 执行校验，ozzo-validation 错误转换为 LayeredError
func ValidateRequest(req Validatable) error {
	err := req.Validate()
	if err == nil {
		return nil
	}

	var validationErrs validation.Errors
	if errors.As(err, &validationErrs) {
		return ConvertValidationError(validationErrs)
	}
	return err
}

// ConvertValidationError 提取字段级错误；嵌套结构的错误以 "parent.field" 展开
func ConvertValidationError(validationErrs validation.Errors) *errcode.LayeredError {
	fields := make(map[string]string, len(validationErrs))
	flattenErrors("", validationErrs, fields)
	return ErrValidationFailed.WithData("fields", fields)
}

func flattenErrors(prefix string, errs validation.Errors, out map[string]string) {
	for field, fieldErr := range errs {
		if fieldErr == nil {
			continue
		}
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(fieldErr, &nested) {
			flattenErrors(key, nested, out)
			continue
		}
		out[key] = fieldErr.Error()
	}
}
