package neo4jrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"netvis/biz/dal/neo4jdal"
	"netvis/biz/mapper"
	"netvis/biz/model/graph"
	"netvis/pkg/cache"
)

const (
	deriveCachePrefix = "derive:"
	// 派生结果默认缓存时间
	defaultDeriveTTL = 10 * time.Minute
)

// BreakerSettings 派生查询熔断器配置
type BreakerSettings struct {
	MaxRequests      uint32        // 半开状态允许的请求数
	Interval         time.Duration // 闭合状态下清空统计的周期
	Timeout          time.Duration // 打开状态持续时间
	MinRequests      uint32        // 判定前的最少请求数
	FailureThreshold float64       // 触发熔断的失败率
}

// DefaultBreakerSettings 返回默认熔断配置
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		MinRequests:      5,
		FailureThreshold: 0.8,
	}
}

// Options 是 GraphRepository 的可选依赖与参数
type Options struct {
	Database    string            // 目标数据库名，空表示服务端默认库
	Cache       cache.ScalarCache // 派生结果缓存，可为 nil
	CacheTTL    time.Duration
	DeriveQPS   float64 // <= 0 表示不限流
	DeriveBurst int
	Breaker     BreakerSettings
	Logger      *zap.Logger
}

// neo4jGraphRepo 实现了 GraphRepository 接口
type neo4jGraphRepo struct {
	driver   neo4j.DriverWithContext
	dal      neo4jdal.GraphDAL
	cache    cache.ScalarCache
	database string
	ttl      time.Duration
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

// NewGraphRepository 创建一个新的 GraphRepository 实例
// 依赖注入 Neo4j 驱动、Graph DAL 实现以及可选的缓存、限流和熔断配置
func NewGraphRepository(driver neo4j.DriverWithContext, dal neo4jdal.GraphDAL, opts Options) GraphRepository {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultDeriveTTL
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.DeriveQPS > 0 {
		burst := opts.DeriveBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.DeriveQPS), burst)
	}

	bs := opts.Breaker
	if bs == (BreakerSettings{}) {
		bs = DefaultBreakerSettings()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "neo4j-derive",
		MaxRequests: bs.MaxRequests,
		Interval:    bs.Interval,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bs.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= bs.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("熔断器状态变化",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &neo4jGraphRepo{
		driver:   driver,
		dal:      dal,
		cache:    opts.Cache,
		database: opts.Database,
		ttl:      ttl,
		limiter:  limiter,
		breaker:  breaker,
		logger:   logger,
	}
}

func (r *neo4jGraphRepo) newReadSession(ctx context.Context) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: r.database,
	})
}

// StreamGraph 打开一个只读会话执行查询，逐条记录转换为领域元素并回调
func (r *neo4jGraphRepo) StreamGraph(ctx context.Context, query string, params map[string]any, handler ElementHandler) (int, error) {
	session := r.newReadSession(ctx)
	defer func() {
		if err := session.Close(ctx); err != nil {
			r.logger.Warn("Repo: 关闭会话失败", zap.Error(err))
		}
	}()

	count, err := r.dal.ExecStream(ctx, session, query, params, func(record *neo4j.Record) error {
		var elements []graph.Element
		for _, v := range record.Values {
			elements = append(elements, mapDbValueToElements(v)...)
		}
		return handler(elements)
	})
	if err != nil {
		return count, fmt.Errorf("repo: 执行图查询失败: %w", err)
	}
	return count, nil
}

// DeriveScalar 执行派生查询，读旁路缓存：先查缓存，未命中再查库并回填。
// 查询没有返回数值时缓存空值占位，防止同一节点反复穿透到数据库。
func (r *neo4jGraphRepo) DeriveScalar(ctx context.Context, query string, nodeID int64) (float64, bool, error) {
	cacheKey := deriveCacheKey(query, nodeID)

	if r.cache != nil {
		v, err := r.cache.GetScalar(ctx, cacheKey)
		switch {
		case err == nil:
			r.logger.Debug("Repo: 派生结果缓存命中", zap.String("key", cacheKey))
			return v, true, nil
		case errors.Is(err, cache.ErrNilValue):
			return 0, false, nil
		case errors.Is(err, cache.ErrNotFound):
			// 未命中，继续查询数据库
		default:
			r.logger.Warn("Repo: 派生结果缓存读取失败", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return 0, false, fmt.Errorf("repo: 派生查询限流等待失败: %w", err)
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		session := r.newReadSession(ctx)
		defer session.Close(ctx)
		return r.dal.ExecCollect(ctx, session, query, map[string]any{"id": nodeID})
	})
	if err != nil {
		return 0, false, fmt.Errorf("repo: 派生查询失败 (node %d): %w", nodeID, err)
	}

	records, _ := result.([]*neo4j.Record)
	var values []any
	for _, record := range records {
		if record != nil {
			values = append(values, record.Values...)
		}
	}
	size, found := mapper.DerivedSize(values)

	if r.cache != nil {
		var toCache *float64
		if found {
			toCache = &size
		}
		if setErr := r.cache.SetScalar(ctx, cacheKey, toCache, r.ttl); setErr != nil {
			r.logger.Warn("Repo: 派生结果写入缓存失败", zap.String("key", cacheKey), zap.Error(setErr))
		}
	}
	return size, found, nil
}

// 确保 neo4jGraphRepo 实现了 GraphRepository 接口
var _ GraphRepository = (*neo4jGraphRepo)(nil)
