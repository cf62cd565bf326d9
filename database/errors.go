package database

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid database config")

	// ErrRecordNotFound 统一的记录不存在错误（屏蔽 gorm.ErrRecordNotFound）
	ErrRecordNotFound = errors.New("record not found")

	ErrDuplicateKey = errors.New("duplicate key")

	errUnsupportedDriver = errors.New("unsupported driver")
)
