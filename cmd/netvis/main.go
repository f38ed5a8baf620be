// Package main 是 netvis 命令行入口
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version 构建时通过 ldflags 注入
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "netvis",
	Short: "把 Neo4j 查询结果渲染为 vis-network 网络图",
	Long: `netvis 连接 Neo4j，执行 Cypher 查询，并将返回的节点和关系
映射为 vis-network 可以直接使用的数据集。

serve 启动 HTTP 服务和浏览器页面，render 执行一次渲染并输出快照。`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径 (为空时只使用默认值和 NETVIS_ 环境变量)")
	rootCmd.Version = Version
	rootCmd.AddCommand(newServeCmd(), newRenderCmd())
}

func main() {
	// .env 文件不存在时忽略
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
