package graph

// Kind 标识图元素的变体
type Kind int

const (
	KindScalar Kind = iota
	KindEntity
	KindRelation
)

func (k Kind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindRelation:
		return "relation"
	default:
		return "scalar"
	}
}

// Element 是数据库返回值的封闭联合类型: Entity | Relation | Scalar。
// 调用方应使用 type switch 穷举匹配。
type Element interface {
	Kind() Kind
	isElement()
}

// Entity 对应 Neo4j 节点
type Entity struct {
	ID         int64          `json:"id"`
	ElementID  string         `json:"element_id,omitempty"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// Relation 对应 Neo4j 关系
type Relation struct {
	ID         int64          `json:"id"`
	ElementID  string         `json:"element_id,omitempty"`
	Type       string         `json:"type"`
	StartID    int64          `json:"start_id"`
	EndID      int64          `json:"end_id"`
	Properties map[string]any `json:"properties"`
}

// Scalar 包装任何非节点、非关系的值 (整数、浮点数、字符串等)
type Scalar struct {
	Value any `json:"value"`
}

func (Entity) Kind() Kind   { return KindEntity }
func (Relation) Kind() Kind { return KindRelation }
func (Scalar) Kind() Kind   { return KindScalar }

func (Entity) isElement()   {}
func (Relation) isElement() {}
func (Scalar) isElement()   {}

// FirstLabel 返回节点的第一个标签，没有标签时返回空串
func (e Entity) FirstLabel() string {
	if len(e.Labels) == 0 {
		return ""
	}
	return e.Labels[0]
}
