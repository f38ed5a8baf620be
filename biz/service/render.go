package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"netvis/biz/mapper"
	"netvis/biz/model/graph"
	"netvis/pkg/metrics"
)

// renderRun 是一次渲染执行的上下文，只在该次渲染内使用
type renderRun struct {
	id         string
	generation uint64
	settings   Settings
	opts       mapper.Options
	logger     *zap.Logger

	nodes   int
	edges   int
	scalars int
	skipped int
}

// Render 执行一次渲染: Idle -> Running -> Finalizing -> Idle，流错误时进入 Failed
func (v *visualizer) Render(ctx context.Context) error {
	v.mu.Lock()
	run := &renderRun{
		id:         uuid.NewString(),
		generation: v.generation,
		settings:   v.settings,
		opts:       v.settings.mapperOptions(),
	}
	query := v.query
	v.state = StateRunning
	v.stateOwner = run.id
	v.lastError = ""
	v.mu.Unlock()

	run.logger = v.logger.With(zap.String("render_id", run.id), zap.Uint64("generation", run.generation))
	run.logger.Info("开始渲染", zap.String("query", query), zap.Int("limit", run.settings.ResultLimit))

	start := time.Now()
	records, err := v.repo.StreamGraph(ctx, query, run.settings.params(), func(elements []graph.Element) error {
		for _, el := range elements {
			v.apply(ctx, run, el)
		}
		return nil
	})
	elapsed := time.Since(start)

	event := LifecycleEvent{
		RenderID:   run.id,
		Generation: run.generation,
		Query:      query,
		Records:    records,
		Nodes:      run.nodes,
		Edges:      run.edges,
		Skipped:    run.skipped,
		DurationMs: elapsed.Milliseconds(),
	}

	if err != nil {
		v.mu.Lock()
		if v.stateOwner == run.id {
			// 已被清空的渲染失败时不标记 Failed，直接回到 Idle
			if run.generation == v.generation {
				v.state = StateFailed
				v.lastError = err.Error()
			} else {
				v.state = StateIdle
			}
			v.stateOwner = ""
		}
		v.mu.Unlock()

		run.logger.Error("渲染失败", zap.Int("records", records), zap.Error(err))
		v.metrics.ObserveRender(metrics.OutcomeFailure, elapsed)
		event.Type = EventRenderFailed
		event.Error = err.Error()
		v.publish(ctx, event)
		return fmt.Errorf("render %s: %w", run.id, err)
	}

	if !v.finalize(run) {
		run.logger.Info("渲染已过期，不构造视图", zap.Int("records", records))
		v.metrics.ObserveRender(metrics.OutcomeStale, elapsed)
		return nil
	}

	run.logger.Info("渲染完成",
		zap.Int("records", records),
		zap.Int("nodes", run.nodes),
		zap.Int("edges", run.edges),
		zap.Int("scalars", run.scalars),
		zap.Int("skipped", run.skipped),
		zap.Duration("elapsed", elapsed))
	v.metrics.ObserveRender(metrics.OutcomeSuccess, elapsed)
	event.Type = EventRenderCompleted
	v.publish(ctx, event)
	return nil
}

// finalize 构造或刷新视图。渲染已过期时返回 false。
// 只有最近一次开始的渲染才能改变状态，过期的渲染也要把状态交还为 Idle。
func (v *visualizer) finalize(run *renderRun) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	owned := v.stateOwner == run.id
	if owned {
		defer func() {
			v.state = StateIdle
			v.stateOwner = ""
		}()
	}
	if run.generation != v.generation {
		return false
	}
	if owned {
		v.state = StateFinalizing
	}
	if v.view == nil {
		v.view = &graph.View{}
	}
	v.view.Container = run.settings.Container
	v.view.Options = graph.NewOptions(run.settings.Arrows)
	v.view.Stabilized = false
	v.view.Revision++
	return true
}

// apply 按元素变体分派到对应的映射器并写入数据集。
// 映射或写入失败只记录日志，不中断流。
func (v *visualizer) apply(ctx context.Context, run *renderRun, el graph.Element) {
	v.metrics.IncElement(el.Kind().String())

	switch e := el.(type) {
	case graph.Entity:
		res := mapper.BuildNode(e, run.settings.Styles, run.opts)
		applied, err := v.upsertNode(run.generation, res.Node)
		if err != nil {
			run.skipped++
			v.metrics.IncMappingError()
			run.logger.Warn("节点写入失败，已跳过", zap.Int64("id", e.ID), zap.Error(err))
			return
		}
		if !applied {
			return
		}
		run.nodes++
		if res.DeriveQuery != "" {
			v.derive(ctx, run, e.ID, res.DeriveQuery)
		}

	case graph.Relation:
		res := mapper.BuildEdge(e, run.settings.Styles, run.opts)
		if res.Fallback != nil {
			v.metrics.IncMappingError()
			run.logger.Warn("关系粗细无法解析，使用默认值", zap.Int64("id", e.ID), zap.String("type", e.Type), zap.Error(res.Fallback))
		}
		applied, err := v.upsertEdge(run.generation, res.Edge)
		if err != nil {
			run.skipped++
			v.metrics.IncMappingError()
			run.logger.Warn("关系写入失败，已跳过", zap.Int64("id", e.ID), zap.String("type", e.Type), zap.Error(err))
			return
		}
		if applied {
			run.edges++
		}

	case graph.Scalar:
		run.scalars++
		run.logger.Debug("忽略非图元素的值", zap.Any("value", e.Value))
	}
}

// upsertNode 仅当代数未变化时写入节点
func (v *visualizer) upsertNode(gen uint64, node graph.VisualNode) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if gen != v.generation {
		return false, nil
	}
	return true, v.nodes.Upsert(node)
}

// upsertEdge 仅当代数未变化时写入边
func (v *visualizer) upsertEdge(gen uint64, edge graph.VisualEdge) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if gen != v.generation {
		return false, nil
	}
	return true, v.edges.Upsert(edge)
}

// derive 异步执行派生查询并把结果合并到已写入的节点。
// 查询与请求的取消解耦，结果到达时若代数已变化或节点已不存在则丢弃。
func (v *visualizer) derive(ctx context.Context, run *renderRun, nodeID int64, query string) {
	dctx := context.WithoutCancel(ctx)
	gen := run.generation
	logger := run.logger

	// derivMu 保证 Wait 期间不会有新的派生查询加入
	v.derivMu.RLock()
	defer v.derivMu.RUnlock()
	v.derivations.Go(func() {
		size, found, err := v.repo.DeriveScalar(dctx, query, nodeID)
		if err != nil {
			v.metrics.IncDerivation(metrics.OutcomeFailure)
			logger.Warn("派生查询失败", zap.Int64("node", nodeID), zap.Error(err))
			return
		}
		if !found {
			v.metrics.IncDerivation(metrics.OutcomeEmpty)
			logger.Debug("派生查询没有返回数值", zap.Int64("node", nodeID))
			return
		}

		v.mu.RLock()
		defer v.mu.RUnlock()
		if gen != v.generation {
			v.metrics.IncDerivation(metrics.OutcomeStale)
			return
		}
		ok, err := v.nodes.Update(nodeID, func(n *graph.VisualNode) { n.Value = size })
		switch {
		case err != nil:
			v.metrics.IncDerivation(metrics.OutcomeFailure)
			logger.Warn("派生结果无效", zap.Int64("node", nodeID), zap.Float64("size", size), zap.Error(err))
		case !ok:
			v.metrics.IncDerivation(metrics.OutcomeStale)
		default:
			v.metrics.IncDerivation(metrics.OutcomeSuccess)
		}
	})
}
