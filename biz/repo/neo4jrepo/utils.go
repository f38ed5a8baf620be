package neo4jrepo

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"netvis/biz/model/graph"
)

// --- 通用辅助函数 ---

// mapDbValueToElements 将驱动返回的单个值转换为领域元素。
// Path 与列表会被展开为其中的节点和关系，其它值作为 Scalar 原样保留。
func mapDbValueToElements(v any) []graph.Element {
	switch val := v.(type) {
	case dbtype.Node:
		return []graph.Element{mapDbNodeToEntity(val)}
	case *dbtype.Node:
		if val == nil {
			return []graph.Element{graph.Scalar{}}
		}
		return []graph.Element{mapDbNodeToEntity(*val)}
	case dbtype.Relationship:
		return []graph.Element{mapDbRelationshipToRelation(val)}
	case *dbtype.Relationship:
		if val == nil {
			return []graph.Element{graph.Scalar{}}
		}
		return []graph.Element{mapDbRelationshipToRelation(*val)}
	case dbtype.Path:
		out := make([]graph.Element, 0, len(val.Nodes)+len(val.Relationships))
		for _, n := range val.Nodes {
			out = append(out, mapDbNodeToEntity(n))
		}
		for _, r := range val.Relationships {
			out = append(out, mapDbRelationshipToRelation(r))
		}
		return out
	case []any:
		var out []graph.Element
		for _, item := range val {
			out = append(out, mapDbValueToElements(item)...)
		}
		return out
	default:
		return []graph.Element{graph.Scalar{Value: v}}
	}
}

// mapDbNodeToEntity 将 Neo4j 节点对象转换为 Entity
func mapDbNodeToEntity(dbNode dbtype.Node) graph.Entity {
	return graph.Entity{
		ID:         dbNode.Id, //nolint:staticcheck // 可视化使用内部数值 ID
		ElementID:  dbNode.ElementId,
		Labels:     dbNode.Labels,
		Properties: dbNode.Props,
	}
}

// mapDbRelationshipToRelation 将 Neo4j 关系对象转换为 Relation
func mapDbRelationshipToRelation(dbRel dbtype.Relationship) graph.Relation {
	return graph.Relation{
		ID:         dbRel.Id,      //nolint:staticcheck
		StartID:    dbRel.StartId, //nolint:staticcheck
		EndID:      dbRel.EndId,   //nolint:staticcheck
		ElementID:  dbRel.ElementId,
		Type:       dbRel.Type,
		Properties: dbRel.Props,
	}
}

// deriveCacheKey 生成派生查询结果的缓存键
// 格式: derive:<query_hash>:<node_id>
func deriveCacheKey(query string, nodeID int64) string {
	hasher := sha1.New()
	hasher.Write([]byte(query))
	queryHash := hex.EncodeToString(hasher.Sum(nil))
	return deriveCachePrefix + queryHash + ":" + strconv.FormatInt(nodeID, 10)
}
