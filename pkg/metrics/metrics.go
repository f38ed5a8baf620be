package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 渲染结果标签值
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeStale   = "stale"
	OutcomeEmpty   = "empty"
)

// Collector 保存渲染流程的 Prometheus 指标。
// 所有方法对 nil 接收者安全，未启用指标时可以直接传 nil。
type Collector struct {
	registry *prometheus.Registry

	Renders        *prometheus.CounterVec
	RenderDuration prometheus.Histogram
	Elements       *prometheus.CounterVec
	MappingErrors  prometheus.Counter
	Derivations    *prometheus.CounterVec
}

// NewCollector 在给定的 registry 上创建并注册指标，registry 为 nil 时新建一个
func NewCollector(namespace string, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	renders := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Total number of render executions by outcome",
		},
		[]string{"outcome"},
	)

	renderDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of the main render query stream in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	elements := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elements_total",
			Help:      "Total number of graph elements received by kind",
		},
		[]string{"kind"},
	)

	mappingErrors := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mapping_errors_total",
			Help:      "Total number of elements that fell back to defaults or were skipped on upsert",
		},
	)

	derivations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "derivations_total",
			Help:      "Total number of size derivation queries by outcome",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(renders, renderDuration, elements, mappingErrors, derivations)

	return &Collector{
		registry:       registry,
		Renders:        renders,
		RenderDuration: renderDuration,
		Elements:       elements,
		MappingErrors:  mappingErrors,
		Derivations:    derivations,
	}
}

// Registry 返回指标所在的 registry，用于和 HTTP 指标端点共享
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveRender 记录一次渲染的结果和耗时
func (c *Collector) ObserveRender(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.Renders.WithLabelValues(outcome).Inc()
	c.RenderDuration.Observe(d.Seconds())
}

// IncElement 记录收到的一个图元素
func (c *Collector) IncElement(kind string) {
	if c == nil {
		return
	}
	c.Elements.WithLabelValues(kind).Inc()
}

// IncMappingError 记录一个被跳过的元素
func (c *Collector) IncMappingError() {
	if c == nil {
		return
	}
	c.MappingErrors.Inc()
}

// IncDerivation 记录一次派生查询的结果
func (c *Collector) IncDerivation(outcome string) {
	if c == nil {
		return
	}
	c.Derivations.WithLabelValues(outcome).Inc()
}
