package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"netvis/internal/bootstrap"
)

func newServeCmd() *cobra.Command {
	var noMessaging bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务，首次渲染使用配置中的初始查询",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := bootstrap.Init(ctx, configPath, bootstrap.Options{
				Messaging:   !noMessaging,
				WatchConfig: configPath != "",
			})
			if err != nil {
				return err
			}

			// 首次渲染失败不影响服务启动，页面上可以重试
			if err := app.Service.Render(ctx); err != nil {
				app.Logger.Warn("初始渲染失败", zap.Error(err))
			}

			h := app.NewServer()
			h.OnShutdown = append(h.OnShutdown, func(ctx context.Context) {
				closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				app.Close(closeCtx)
			})

			app.Logger.Info("启动 Hertz 服务器...", zap.String("address", app.Config.Server.Address))
			h.Spin()
			return nil
		},
	}
	cmd.Flags().BoolVar(&noMessaging, "no-messaging", false, "即使配置启用也不连接 RabbitMQ")
	return cmd
}
