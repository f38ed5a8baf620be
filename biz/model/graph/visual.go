package graph

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidVisual 表示可视化记录无法被数据集接受 (例如 NaN 值无法序列化)
var ErrInvalidVisual = errors.New("graph: invalid visual record")

// DefaultValue 是节点大小与边粗细的默认值
const DefaultValue = 1.0

// VisualNode 是 vis-network 节点记录
type VisualNode struct {
	ID    int64   `json:"id" yaml:"id"`
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
	// Group 为 string 或 float64
	Group any    `json:"group" yaml:"group"`
	Title string `json:"title" yaml:"title"`
}

// VisualEdge 是 vis-network 边记录
type VisualEdge struct {
	ID    int64   `json:"id" yaml:"id"`
	From  int64   `json:"from" yaml:"from"`
	To    int64   `json:"to" yaml:"to"`
	Value float64 `json:"value" yaml:"value"`
	Label string  `json:"label" yaml:"label"`
	Title string  `json:"title" yaml:"title"`
}

func (n VisualNode) Key() int64 { return n.ID }
func (e VisualEdge) Key() int64 { return e.ID }

// Validate 检查节点是否可以被 JSON 序列化
func (n VisualNode) Validate() error {
	if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return fmt.Errorf("%w: node %d has non-finite value", ErrInvalidVisual, n.ID)
	}
	if f, ok := n.Group.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return fmt.Errorf("%w: node %d has non-finite group", ErrInvalidVisual, n.ID)
	}
	return nil
}

// Validate 检查边是否可以被 JSON 序列化
func (e VisualEdge) Validate() error {
	if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
		return fmt.Errorf("%w: edge %d has non-finite value", ErrInvalidVisual, e.ID)
	}
	return nil
}
