package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"netvis/biz/dataset"
	"netvis/biz/model/graph"
	"netvis/biz/repo/neo4jrepo"
	"netvis/pkg/metrics"
)

var (
	// ErrNoView 表示还没有构造过网络视图 (从未成功渲染)
	ErrNoView = errors.New("service: network view not constructed")
	// ErrEmptyQuery 表示传入的查询为空
	ErrEmptyQuery = errors.New("service: empty cypher query")
)

// VisualizationService 定义了可视化生命周期控制器的操作接口
type VisualizationService interface {
	// Render 以当前查询执行一次渲染: 流式读取记录、映射并写入数据集，完成后构造或刷新视图。
	// 流错误会被记录并返回，已写入的元素不回滚。
	Render(ctx context.Context) error
	// ClearNetwork 清空两个数据集并使进行中的渲染失效，视图保留
	ClearNetwork(ctx context.Context)
	// Reload 清空后以当前查询重新渲染
	Reload(ctx context.Context) error
	// RenderWithCypher 清空、替换当前查询并渲染
	RenderWithCypher(ctx context.Context, query string) error
	// Stabilize 停止当前视图的物理模拟，不改变数据
	Stabilize(ctx context.Context) error
	// Reinit 整体替换配置并清空数据集，不自动渲染
	Reinit(ctx context.Context, settings Settings)
	// Snapshot 返回当前状态的只读快照
	Snapshot() graph.Snapshot
	// Settings 返回当前生效的配置
	Settings() Settings
	// Wait 等待所有进行中的派生查询完成
	Wait()
}

// Option 是 visualizer 的可选依赖
type Option func(*visualizer)

// WithMetrics 设置指标收集器
func WithMetrics(c *metrics.Collector) Option {
	return func(v *visualizer) { v.metrics = c }
}

// WithEventPublisher 设置生命周期事件发布者以及使用的路由键
func WithEventPublisher(p EventPublisher, routingKey string) Option {
	return func(v *visualizer) {
		v.events = p
		v.eventsKey = routingKey
	}
}

// visualizer 实现了 VisualizationService 接口。
// mu 保护配置、当前查询、代数、状态和视图；数据集自身并发安全，
// 写入时持有 mu 的读锁，保证代数检查与写入之间不会插入一次清空。
type visualizer struct {
	repo      neo4jrepo.GraphRepository
	logger    *zap.Logger
	metrics   *metrics.Collector
	events    EventPublisher
	eventsKey string

	nodes *dataset.DataSet[graph.VisualNode]
	edges *dataset.DataSet[graph.VisualEdge]

	mu         sync.RWMutex
	settings   Settings
	query      string
	generation uint64
	state      State
	stateOwner string // 最近一次开始的渲染 id，只有它能把状态交还为 Idle
	lastError  string
	view       *graph.View

	derivMu     sync.RWMutex
	derivations conc.WaitGroup
}

// NewVisualizationService 创建一个新的 VisualizationService 实例
// 通过依赖注入传入仓库层实现、初始配置和 logger
func NewVisualizationService(repo neo4jrepo.GraphRepository, settings Settings, logger *zap.Logger, opts ...Option) VisualizationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &visualizer{
		repo:     repo,
		logger:   logger.Named("visualizer"),
		nodes:    dataset.New[graph.VisualNode](),
		edges:    dataset.New[graph.VisualEdge](),
		settings: settings,
		query:    settings.Query,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// clearLocked 清空数据集并递增代数，调用方必须持有写锁
func (v *visualizer) clearLocked() (nodes, edges int) {
	v.generation++
	nodes = v.nodes.Clear()
	edges = v.edges.Clear()
	if v.view != nil {
		// 空数据集重新绑定到现有视图
		v.view.Revision++
	}
	return nodes, edges
}

// ClearNetwork 清空两个数据集
func (v *visualizer) ClearNetwork(ctx context.Context) {
	v.mu.Lock()
	nodes, edges := v.clearLocked()
	gen := v.generation
	v.mu.Unlock()

	v.logger.Info("网络已清空",
		zap.Uint64("generation", gen),
		zap.Int("nodes", nodes),
		zap.Int("edges", edges))
	v.publish(ctx, LifecycleEvent{Type: EventNetworkCleared, Generation: gen})
}

// Reload 清空后以当前查询重新渲染
func (v *visualizer) Reload(ctx context.Context) error {
	v.ClearNetwork(ctx)
	return v.Render(ctx)
}

// RenderWithCypher 清空、替换当前查询并渲染
func (v *visualizer) RenderWithCypher(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return ErrEmptyQuery
	}

	v.mu.Lock()
	v.clearLocked()
	v.query = query
	gen := v.generation
	v.mu.Unlock()

	v.logger.Info("切换查询", zap.Uint64("generation", gen), zap.String("query", query))
	v.publish(ctx, LifecycleEvent{Type: EventNetworkCleared, Generation: gen, Query: query})
	return v.Render(ctx)
}

// Stabilize 标记当前视图停止物理模拟
func (v *visualizer) Stabilize(ctx context.Context) error {
	v.mu.Lock()
	if v.view == nil {
		v.mu.Unlock()
		return ErrNoView
	}
	v.view.Stabilized = true
	gen := v.generation
	v.mu.Unlock()

	v.logger.Info("视图已稳定", zap.Uint64("generation", gen))
	v.publish(ctx, LifecycleEvent{Type: EventNetworkStabilized, Generation: gen})
	return nil
}

// Reinit 替换配置并清空数据集。
// 已存在的视图改用新的容器和选项，等待下一次渲染填充数据。
func (v *visualizer) Reinit(ctx context.Context, settings Settings) {
	v.mu.Lock()
	v.settings = settings
	v.query = settings.Query
	nodes, edges := v.clearLocked()
	if v.view != nil {
		v.view.Container = settings.Container
		v.view.Options = graph.NewOptions(settings.Arrows)
		v.view.Stabilized = false
	}
	v.state = StateIdle
	v.stateOwner = ""
	v.lastError = ""
	gen := v.generation
	v.mu.Unlock()

	v.logger.Info("配置已重新初始化",
		zap.Uint64("generation", gen),
		zap.String("container", settings.Container),
		zap.String("query", settings.Query),
		zap.Int("label_styles", len(settings.Styles.Labels)),
		zap.Int("relationship_styles", len(settings.Styles.Relationships)),
		zap.Int("cleared_nodes", nodes),
		zap.Int("cleared_edges", edges))
	v.publish(ctx, LifecycleEvent{Type: EventNetworkReinit, Generation: gen, Query: settings.Query})
}

// Snapshot 返回当前状态的只读快照
func (v *visualizer) Snapshot() graph.Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	snap := graph.Snapshot{
		Generation: v.generation,
		State:      v.state.String(),
		Query:      v.query,
		LastError:  v.lastError,
		Nodes:      v.nodes.Items(),
		Edges:      v.edges.Items(),
	}
	if v.view != nil {
		view := *v.view
		snap.View = &view
	}
	return snap
}

// Settings 返回当前生效的配置
func (v *visualizer) Settings() Settings {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.settings
}

// Wait 等待所有进行中的派生查询完成。
// 等待期间仍在流式读取的渲染会阻塞在下一次派生查询之前，直到 Wait 返回。
func (v *visualizer) Wait() {
	v.derivMu.Lock()
	defer v.derivMu.Unlock()
	v.derivations.Wait()
}

// publish 发布生命周期事件，失败只记录日志
func (v *visualizer) publish(ctx context.Context, event LifecycleEvent) {
	if v.events == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := v.events.Publish(ctx, v.eventsKey, event); err != nil {
		v.logger.Warn("发布生命周期事件失败", zap.String("type", event.Type), zap.Error(err))
	}
}

// 确保 visualizer 实现了 VisualizationService 接口
var _ VisualizationService = (*visualizer)(nil)
