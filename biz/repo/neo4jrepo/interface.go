package neo4jrepo

import (
	"context"

	"netvis/biz/model/graph"
)

// ElementHandler 处理一条记录中解析出的全部图元素。
// 返回错误会中止整个流。
type ElementHandler func(elements []graph.Element) error

// GraphRepository 定义了可视化所需的图数据访问接口。
// Repo 层负责会话管理、驱动类型到领域模型的转换以及派生查询的缓存与限流。
type GraphRepository interface {
	// StreamGraph 在一个只读会话中执行查询，并按记录顺序回调 handler。
	// 输入：Cypher 查询、参数、每条记录的回调。
	// 输出：已处理的记录数以及错误（查询失败或流中断）。
	StreamGraph(ctx context.Context, query string, params map[string]any, handler ElementHandler) (int, error)

	// DeriveScalar 以 {id: nodeID} 为参数执行派生查询，返回结果中最后一个数值。
	// 输入：派生查询、节点内部 ID。
	// 输出：数值、是否找到数值以及错误。
	DeriveScalar(ctx context.Context, query string, nodeID int64) (float64, bool, error)
}
