package database

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jconfig "github.com/neo4j/neo4j-go-driver/v5/neo4j/config"
	"go.uber.org/zap"

	"netvis/pkg/config"
)

// neo4jConfigurer 将连接池配置应用到驱动配置上，未设置 (0) 的项保留驱动默认值
func neo4jConfigurer(cfg config.Neo4jConfig) func(*neo4jconfig.Config) {
	return func(c *neo4jconfig.Config) {
		if cfg.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		}
		if cfg.ConnectionAcquisitionTimeout > 0 {
			c.ConnectionAcquisitionTimeout = time.Duration(cfg.ConnectionAcquisitionTimeout) * time.Second
		}
		if cfg.MaxConnectionLifetime > 0 {
			c.MaxConnectionLifetime = time.Duration(cfg.MaxConnectionLifetime) * time.Second
		}
	}
}

// NewNeo4jDriver 只创建驱动，不建立连接
func NewNeo4jDriver(cfg config.Neo4jConfig) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		neo4jConfigurer(cfg),
	)
	if err != nil {
		return nil, fmt.Errorf("无法创建 Neo4j 驱动: %w", err)
	}
	return driver, nil
}

// InitNeo4j 初始化 Neo4j 驱动并验证连接
// 返回创建好的驱动实例，如果初始化失败则返回错误。
func InitNeo4j(ctx context.Context, cfg config.Neo4jConfig, logger *zap.Logger) (neo4j.DriverWithContext, error) {
	driver, err := NewNeo4jDriver(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// 检查连接性
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx) // 关闭无效的驱动
		return nil, fmt.Errorf("无法连接到 Neo4j: %w", err)
	}

	if info, err := driver.GetServerInfo(ctx); err == nil {
		logger.Info("成功连接到 Neo4j",
			zap.String("uri", cfg.URI),
			zap.String("address", info.Address()),
			zap.String("agent", info.Agent()),
			zap.String("database", cfg.Database))
	} else {
		logger.Info("成功连接到 Neo4j", zap.String("uri", cfg.URI))
	}

	return driver, nil
}
