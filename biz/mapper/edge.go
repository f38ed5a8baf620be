package mapper

import (
	"fmt"

	"netvis/biz/model/graph"
)

// EdgeResult 是关系映射的结果。
// Fallback 非空时表示配置的粗细属性不是数值，Edge.Value 已回退为默认值，边本身仍然有效。
type EdgeResult struct {
	Edge     graph.VisualEdge
	Fallback error
}

// BuildEdge 将一个 Relation 按其类型的样式映射为 VisualEdge
func BuildEdge(r graph.Relation, styles graph.StyleConfig, opts Options) EdgeResult {
	style := styles.Relationship(r.Type)

	res := EdgeResult{Edge: graph.VisualEdge{
		ID:    r.ID,
		From:  r.StartID,
		To:    r.EndID,
		Value: graph.DefaultValue,
		Label: style.Caption.Resolve(r.Type),
		Title: Tooltip(r.Properties, opts.EscapeTooltips),
	}}

	switch {
	case style.Thickness.IsLiteral:
		res.Edge.Value = style.Thickness.Literal
	case style.Thickness.Property != "":
		raw, ok := r.Properties[style.Thickness.Property]
		if !ok || raw == nil {
			break
		}
		if !graph.IsNumeric(raw) {
			res.Fallback = fmt.Errorf("%w: relationship %d property %q is %T, want number",
				ErrMapping, r.ID, style.Thickness.Property, raw)
			break
		}
		if f, ok := graph.Narrow(raw); ok {
			res.Edge.Value = f
		}
	}

	return res
}
