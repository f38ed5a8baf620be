package mapper

import (
	"netvis/biz/model/graph"
)

// Options 控制映射的可选行为
type Options struct {
	// EscapeTooltips 为 true 时对 tooltip 中的键和值进行 HTML 转义
	EscapeTooltips bool
}

// NodeResult 是节点映射的结果。
// DeriveQuery 非空时，Node.Value 只是占位值，需要调用方异步执行查询后合并。
type NodeResult struct {
	Node        graph.VisualNode
	DeriveQuery string
}

// BuildNode 将一个 Entity 按其第一个标签的样式映射为 VisualNode
func BuildNode(e graph.Entity, styles graph.StyleConfig, opts Options) NodeResult {
	label := e.FirstLabel()
	style := styles.Label(label)

	node := graph.VisualNode{
		ID:    e.ID,
		Label: nodeCaption(e, style, label),
		Value: graph.DefaultValue,
		Group: nodeGroup(e, style, label),
		Title: Tooltip(e.Properties, opts.EscapeTooltips),
	}

	// 大小优先级: 派生查询 > 字面量 > 属性
	var derive string
	switch {
	case style.SizeCypher != "":
		derive = style.SizeCypher
	case style.Size.IsLiteral:
		node.Value = style.Size.Literal
	case style.Size.Property != "":
		if raw, ok := e.Properties[style.Size.Property]; ok {
			if f, ok := graph.Narrow(raw); ok {
				node.Value = f
			}
		}
	}

	return NodeResult{Node: node, DeriveQuery: derive}
}

func nodeCaption(e graph.Entity, style graph.LabelStyle, label string) string {
	if style.Caption != "" {
		if raw, ok := e.Properties[style.Caption]; ok && raw != nil {
			if s := FormatValue(raw); s != "" {
				return s
			}
		}
	}
	return label
}

// nodeGroup 显式区分"属性不存在"与"属性为零值"，数值 0 是合法的分组
func nodeGroup(e graph.Entity, style graph.LabelStyle, label string) any {
	if style.Community == "" {
		return label
	}
	if raw, ok := e.Properties[style.Community]; ok && raw != nil {
		if f, ok := graph.Narrow(raw); ok {
			return f
		}
		if s, ok := raw.(string); ok {
			return s
		}
	}
	if label != "" {
		return label
	}
	return 0.0
}

// DerivedSize 从派生查询返回的值中选出最后一个可用的数值
func DerivedSize(values []any) (float64, bool) {
	var (
		size  float64
		found bool
	)
	for _, v := range values {
		if f, ok := graph.Narrow(v); ok {
			size, found = f, true
		}
	}
	return size, found
}
