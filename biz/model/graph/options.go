package graph

// Options 是传给 vis.Network 的固定选项包，字段结构与 vis-network 一致
type Options struct {
	Nodes   NodeOptions    `json:"nodes" yaml:"nodes"`
	Edges   EdgeOptions    `json:"edges" yaml:"edges"`
	Layout  LayoutOptions  `json:"layout" yaml:"layout"`
	Physics PhysicsOptions `json:"physics" yaml:"physics"`
}

type NodeOptions struct {
	Shape   string         `json:"shape" yaml:"shape"`
	Font    FontOptions    `json:"font" yaml:"font"`
	Scaling ScalingOptions `json:"scaling" yaml:"scaling"`
}

type FontOptions struct {
	Size        int `json:"size" yaml:"size"`
	StrokeWidth int `json:"strokeWidth" yaml:"strokeWidth"`
}

type ScalingOptions struct {
	Label Toggle `json:"label" yaml:"label"`
}

type Toggle struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

type EdgeOptions struct {
	Arrows ArrowOptions `json:"arrows" yaml:"arrows"`
}

type ArrowOptions struct {
	To Toggle `json:"to" yaml:"to"`
}

type LayoutOptions struct {
	ImprovedLayout bool `json:"improvedLayout" yaml:"improvedLayout"`
}

type PhysicsOptions struct {
	Enabled       bool    `json:"enabled" yaml:"enabled"`
	Timestep      float64 `json:"timestep" yaml:"timestep"`
	Stabilization bool    `json:"stabilization" yaml:"stabilization"`
}

// NewOptions 构造固定的渲染选项，只有箭头显示受配置控制
func NewOptions(arrows bool) Options {
	return Options{
		Nodes: NodeOptions{
			Shape:   "dot",
			Font:    FontOptions{Size: 26, StrokeWidth: 7},
			Scaling: ScalingOptions{Label: Toggle{Enabled: true}},
		},
		Edges: EdgeOptions{
			Arrows: ArrowOptions{To: Toggle{Enabled: arrows}},
		},
		Layout: LayoutOptions{ImprovedLayout: false},
		Physics: PhysicsOptions{
			Enabled:       true,
			Timestep:      0.4,
			Stabilization: true,
		},
	}
}

// View 描述一个已构造的网络视图: 容器、选项以及是否已停止物理模拟
type View struct {
	Container  string  `json:"container" yaml:"container"`
	Options    Options `json:"options" yaml:"options"`
	Stabilized bool    `json:"stabilized" yaml:"stabilized"`
	// Revision 每次重新构造或重新绑定数据时递增，页面据此决定是否重建 vis.Network
	Revision uint64 `json:"revision" yaml:"revision"`
}

// Snapshot 是控制器状态的只读快照，供 HTTP/CLI 输出
type Snapshot struct {
	Generation uint64       `json:"generation" yaml:"generation"`
	State      string       `json:"state" yaml:"state"`
	Query      string       `json:"query" yaml:"query"`
	LastError  string       `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	Nodes      []VisualNode `json:"nodes" yaml:"nodes"`
	Edges      []VisualEdge `json:"edges" yaml:"edges"`
	View       *View        `json:"view,omitempty" yaml:"view,omitempty"`
}
