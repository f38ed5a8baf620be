package cache

import "errors"

var (
	// ErrNotFound 表示派生结果没有缓存 (布隆过滤器未命中或键已过期)，
	// 调用方应回源执行派生查询。
	ErrNotFound = errors.New("cache: key not found")

	// ErrNilValue 表示上一次派生查询没有返回数值，缓存中存的是空值占位。
	// 调用方应直接使用默认大小，不再回源。
	ErrNilValue = errors.New("cache: stored nil value")
)
