package cache

import (
	"context"
	"time"
)

// ScalarCache 定义派生查询结果 (单个数值) 的缓存操作接口
type ScalarCache interface {
	// GetScalar 从缓存中获取数值。
	// 如果缓存未命中，应返回 ErrNotFound。
	// 如果缓存了空值（表示查询没有返回数值），应返回 ErrNilValue。
	GetScalar(ctx context.Context, key string) (float64, error)

	// SetScalar 将数值存入缓存。
	// value 为 nil 时缓存空值（防止缓存穿透）。
	SetScalar(ctx context.Context, key string, value *float64, ttl time.Duration) error
}
