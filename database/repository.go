package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// BaseRepository 通用 Repository
type BaseRepository[T any] struct {
	db *gorm.DB
}

func NewBaseRepository[T any](db *gorm.DB) *BaseRepository[T] {
	return &BaseRepository[T]{db: db}
}

// DB 底层连接
func (r *BaseRepository[T]) DB() *gorm.DB {
	return r.db
}

// WithTx 返回绑定事务的 Repository
func (r *BaseRepository[T]) WithTx(tx *gorm.DB) *BaseRepository[T] {
	return &BaseRepository[T]{db: tx}
}

// Create 创建记录，唯一键冲突返回 ErrDuplicateKey
func (r *BaseRepository[T]) Create(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		if IsDuplicateKey(err) {
			return fmt.Errorf("create record: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

// FindByID 按主键查询，不存在返回 ErrRecordNotFound
func (r *BaseRepository[T]) FindByID(ctx context.Context, id any) (*T, error) {
	var entity T
	err := r.db.WithContext(ctx).First(&entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find record (id=%v): %w", id, err)
	}
	return &entity, nil
}

// Update 按列更新，map 形式保证零值也会写入
func (r *BaseRepository[T]) Update(ctx context.Context, entity *T, updates map[string]any) error {
	if err := r.db.WithContext(ctx).Model(entity).Updates(updates).Error; err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// Delete 按主键删除，未命中返回 ErrRecordNotFound
func (r *BaseRepository[T]) Delete(ctx context.Context, id any) error {
	var entity T
	result := r.db.WithContext(ctx).Delete(&entity, id)
	if result.Error != nil {
		return fmt.Errorf("delete record (id=%v): %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Exists 主键是否存在
func (r *BaseRepository[T]) Exists(ctx context.Context, id any) (bool, error) {
	var count int64
	var entity T
	if err := r.db.WithContext(ctx).Model(&entity).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check record exists (id=%v): %w", id, err)
	}
	return count > 0, nil
}

// Transaction 执行事务，fn 返回错误时回滚
func (r *BaseRepository[T]) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// IsDuplicateKey 识别各驱动的唯一键冲突
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
