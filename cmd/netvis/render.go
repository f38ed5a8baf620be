package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"netvis/biz/model/graph"
	"netvis/internal/bootstrap"
)

func newRenderCmd() *cobra.Command {
	var (
		cypher  string
		format  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "执行一次渲染并把网络快照输出到标准输出",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("不支持的输出格式: %s", format)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			app, err := bootstrap.Init(ctx, configPath, bootstrap.Options{})
			if err != nil {
				return err
			}
			defer app.Close(context.Background())

			if cypher != "" {
				err = app.Service.RenderWithCypher(ctx, cypher)
			} else {
				err = app.Service.Render(ctx)
			}
			if err != nil {
				return err
			}
			// 等待派生大小查询全部合并
			app.Service.Wait()

			return writeSnapshot(cmd.OutOrStdout(), app.Service.Snapshot(), format)
		},
	}
	cmd.Flags().StringVar(&cypher, "cypher", "", "替换配置中的初始查询")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "输出格式: json 或 yaml")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "整个渲染的超时时间")
	return cmd
}

func writeSnapshot(w io.Writer, snap graph.Snapshot, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("编码 yaml 失败: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
