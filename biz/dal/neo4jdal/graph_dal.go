package neo4jdal

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// neo4jGraphDAL 实现了 GraphDAL 接口
type neo4jGraphDAL struct {
	// DAL 层不持有 driver，而是通过方法参数接收 session
}

// NewGraphDAL 创建一个新的 GraphDAL 实例
func NewGraphDAL() GraphDAL {
	return &neo4jGraphDAL{}
}

// ExecStream 运行查询并在记录到达时逐条回调。
// 与 ExecuteRead 不同，这里不会先把结果全部缓存到内存。
func (d *neo4jGraphDAL) ExecStream(ctx context.Context, session neo4j.SessionWithContext, query string, params map[string]any, handler RecordHandler) (int, error) {
	result, err := session.Run(ctx, query, params)
	if err != nil {
		return 0, fmt.Errorf("DAL: 运行查询失败: %w", err)
	}

	count := 0
	for result.Next(ctx) {
		if err := handler(result.Record()); err != nil {
			return count, fmt.Errorf("DAL: 处理第 %d 条记录失败: %w", count+1, err)
		}
		count++
	}
	// Next 返回 false 时需要检查是正常结束还是出错
	if err := result.Err(); err != nil {
		return count, fmt.Errorf("DAL: 读取结果流失败: %w", err)
	}
	return count, nil
}

// ExecCollect 在读事务中运行查询并返回全部记录
func (d *neo4jGraphDAL) ExecCollect(ctx context.Context, session neo4j.SessionWithContext, query string, params map[string]any) ([]*neo4j.Record, error) {
	readResult, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, fmt.Errorf("DAL: 运行查询失败: %w", err)
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, fmt.Errorf("DAL: 收集查询结果失败: %w", err)
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	if readResult == nil {
		return nil, nil
	}
	records, ok := readResult.([]*neo4j.Record)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedResult, readResult)
	}
	return records, nil
}
