package neo4jdal

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// RecordHandler 处理流中的一条记录，返回错误会中止流
type RecordHandler func(record *neo4j.Record) error

// GraphDAL 定义了执行任意 Cypher 的底层操作，session 由 Repo 层管理
type GraphDAL interface {
	// ExecStream 以自动提交方式运行查询并逐条回调记录，返回已处理的记录数
	ExecStream(ctx context.Context, session neo4j.SessionWithContext, query string, params map[string]any, handler RecordHandler) (int, error)
	// ExecCollect 在读事务中运行查询并收集全部记录
	ExecCollect(ctx context.Context, session neo4j.SessionWithContext, query string, params map[string]any) ([]*neo4j.Record, error)
}
