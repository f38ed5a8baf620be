package visualization

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"netvis/biz/service"
)

// 远程命令支持的动作
const (
	ActionRender    = "render"
	ActionReload    = "reload"
	ActionCypher    = "cypher"
	ActionClear     = "clear"
	ActionStabilize = "stabilize"
)

// Command 是通过消息队列下发的远程命令
type Command struct {
	Action string `json:"action"`
	Query  string `json:"query,omitempty"`
}

// NewCommandHandler 返回处理远程命令的消息处理函数。
// 返回错误时消息会被 Nack。
func NewCommandHandler(svc service.VisualizationService, l *zap.Logger) func(ctx context.Context, delivery amqp.Delivery) error {
	if l == nil {
		l = zap.NewNop()
	}
	l = l.Named("command_handler")

	return func(ctx context.Context, delivery amqp.Delivery) error {
		var cmd Command
		if err := json.Unmarshal(delivery.Body, &cmd); err != nil {
			return fmt.Errorf("invalid command payload: %w", err)
		}
		l.Info("收到远程命令", zap.String("action", cmd.Action), zap.String("message_id", delivery.MessageId))
		return Execute(ctx, svc, cmd)
	}
}

// Execute 在控制器上执行一条命令
func Execute(ctx context.Context, svc service.VisualizationService, cmd Command) error {
	switch cmd.Action {
	case ActionRender:
		return svc.Render(ctx)
	case ActionReload:
		return svc.Reload(ctx)
	case ActionCypher:
		return svc.RenderWithCypher(ctx, cmd.Query)
	case ActionClear:
		svc.ClearNetwork(ctx)
		return nil
	case ActionStabilize:
		return svc.Stabilize(ctx)
	default:
		return fmt.Errorf("unknown command action %q", cmd.Action)
	}
}
