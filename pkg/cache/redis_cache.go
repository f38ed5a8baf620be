package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/willf/bloom"
)

const (
	// NilValuePlaceholder 用于在 Redis 中标记空值，以区分 key 不存在和 key 存在但值为空。
	NilValuePlaceholder = "__NIL_VALUE__"
	// NilValueTTL 设置空值的较短 TTL，防止长时间缓存不存在的数据。
	NilValueTTL = 5 * time.Minute
	// DefaultTTL Jitter 百分比，例如 0.1 表示在基础 TTL 上增加 0% 到 10% 的随机时间。
	DefaultTTLJitterPercent = 0.1
)

// redisCache 实现了 ScalarCache 接口。
// 布隆过滤器记录本进程写入过的 key，过滤器判定不存在时直接返回 ErrNotFound，不访问 Redis。
type redisCache struct {
	client *redis.Client
	prefix string

	mu     sync.Mutex
	filter *bloom.BloomFilter
}

// NewRedisCache 创建一个新的 Redis 缓存实例
// estimatedKeys 与 fpRate 用于初始化布隆过滤器
func NewRedisCache(client *redis.Client, prefix string, estimatedKeys uint, fpRate float64) (*redisCache, error) {
	if client == nil {
		return nil, errors.New("cache: redis client cannot be nil")
	}
	if estimatedKeys == 0 {
		return nil, errors.New("cache: estimated keys must be positive")
	}
	if fpRate <= 0 || fpRate >= 1 {
		return nil, fmt.Errorf("cache: invalid false positive rate %v", fpRate)
	}
	return &redisCache{
		client: client,
		prefix: prefix,
		filter: bloom.NewWithEstimates(estimatedKeys, fpRate),
	}, nil
}

func (r *redisCache) scalarKey(key string) string {
	return fmt.Sprintf("%sscalar:%s", r.prefix, key)
}

func (r *redisCache) mightContain(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter.TestString(key)
}

func (r *redisCache) remember(key string) {
	r.mu.Lock()
	r.filter.AddString(key)
	r.mu.Unlock()
}

// GetScalar 实现 ScalarCache 的 GetScalar 方法
func (r *redisCache) GetScalar(ctx context.Context, key string) (float64, error) {
	fullKey := r.scalarKey(key)
	if !r.mightContain(fullKey) {
		return 0, ErrNotFound
	}

	val, err := r.client.Get(ctx, fullKey).Result()
	if errors.Is(err, redis.Nil) {
		// Key 不存在 (可能已过期，或布隆过滤器误判)
		return 0, ErrNotFound
	} else if err != nil {
		return 0, fmt.Errorf("cache: redis get failed for key %s: %w", fullKey, err)
	}

	if val == NilValuePlaceholder {
		return 0, ErrNilValue
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		// 数据损坏，尝试删除
		r.client.Del(ctx, fullKey)
		return 0, fmt.Errorf("cache: failed to parse scalar for key %s: %w", fullKey, err)
	}
	return f, nil
}

// SetScalar 实现 ScalarCache 的 SetScalar 方法
func (r *redisCache) SetScalar(ctx context.Context, key string, value *float64, ttl time.Duration) error {
	fullKey := r.scalarKey(key)

	var data string
	if value == nil {
		// 空值的 TTL 通常较短，这里直接使用 NilValueTTL
		data, ttl = NilValuePlaceholder, NilValueTTL
	} else {
		data = strconv.FormatFloat(*value, 'g', -1, 64)
	}

	if err := r.client.Set(ctx, fullKey, data, addJitter(ttl)).Err(); err != nil {
		return fmt.Errorf("cache: redis set failed for key %s: %w", fullKey, err)
	}
	r.remember(fullKey)
	return nil
}

// --- 辅助函数 ---

// addJitter 为 TTL 增加随机偏移，防止缓存雪崩
func addJitter(baseTTL time.Duration) time.Duration {
	if baseTTL <= 0 {
		return baseTTL // 0 或负数 TTL 通常表示不过期或立即过期，不添加 jitter
	}
	jitter := time.Duration(rand.Float64() * DefaultTTLJitterPercent * float64(baseTTL))
	return baseTTL + jitter
}

// 确保 redisCache 实现了 ScalarCache 接口
var _ ScalarCache = (*redisCache)(nil)
