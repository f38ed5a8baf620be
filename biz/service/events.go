package service

import (
	"context"
	"time"
)

// 生命周期事件类型
const (
	EventRenderCompleted   = "render.completed"
	EventRenderFailed      = "render.failed"
	EventNetworkCleared    = "network.cleared"
	EventNetworkStabilized = "network.stabilized"
	EventNetworkReinit     = "network.reinit"
)

// EventPublisher 发布生命周期事件，rabbitmq.Publisher 满足该接口
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, messageBody interface{}) error
}

// LifecycleEvent 是发布到消息队列的事件体
type LifecycleEvent struct {
	Type       string    `json:"type"`
	RenderID   string    `json:"render_id,omitempty"`
	Generation uint64    `json:"generation"`
	Query      string    `json:"query,omitempty"`
	Records    int       `json:"records,omitempty"`
	Nodes      int       `json:"nodes"`
	Edges      int       `json:"edges"`
	Skipped    int       `json:"skipped,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// MessageType 返回事件类型，用作消息的 type 属性
func (e LifecycleEvent) MessageType() string { return e.Type }
