package types

import "github.com/jinzhu/copier"

// Copy 按字段名复制结构体（含切片）
func Copy(dst, src any) error {
	return copier.Copy(dst, src)
}

// CopyAs 复制为新的目标类型
func CopyAs[D any](src any) (D, error) {
	var dst D
	err := copier.Copy(&dst, src)
	return dst, err
}

// CopySlice 逐个转换切片
func CopySlice[S, D any](src []S, converter func(S) D) []D {
	if src == nil {
		return nil
	}
	dst := make([]D, len(src))
	for i, s := range src {
		dst[i] = converter(s)
	}
	return dst
}
