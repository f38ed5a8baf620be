package graph

import (
	"errors"
	"fmt"
)

// ErrInvalidStyle 表示样式配置中的值无法解析
var ErrInvalidStyle = errors.New("graph: invalid style value")

// SizeSelector 描述节点大小的来源: 字面量或属性名。
// 两者都为空时使用默认值 1.0。
type SizeSelector struct {
	Literal   float64
	IsLiteral bool
	Property  string
}

// ThicknessSelector 描述边粗细的来源，规则与 SizeSelector 相同
type ThicknessSelector = SizeSelector

type captionMode int

const (
	captionDefault captionMode = iota
	captionHidden
	captionType
	captionText
)

// CaptionSelector 描述边标题: 隐藏、关系类型或固定文本
type CaptionSelector struct {
	mode captionMode
	text string
}

// LabelStyle 是某个节点标签的样式配置
type LabelStyle struct {
	Caption    string
	Size       SizeSelector
	SizeCypher string
	Community  string
}

// RelationshipStyle 是某个关系类型的样式配置
type RelationshipStyle struct {
	Thickness ThicknessSelector
	Caption   CaptionSelector
}

// StyleConfig 按标签/关系类型索引的样式配置，构造后只读
type StyleConfig struct {
	Labels        map[string]LabelStyle
	Relationships map[string]RelationshipStyle
}

// Label 返回标签对应的样式，未配置时返回零值样式
func (s StyleConfig) Label(label string) LabelStyle {
	if s.Labels == nil {
		return LabelStyle{}
	}
	return s.Labels[label]
}

// Relationship 返回关系类型对应的样式，未配置时返回零值样式
func (s StyleConfig) Relationship(relType string) RelationshipStyle {
	if s.Relationships == nil {
		return RelationshipStyle{}
	}
	return s.Relationships[relType]
}

// ParseSizeSelector 解析配置中的原始值: 数值为字面量，字符串为属性名。
func ParseSizeSelector(raw any) (SizeSelector, error) {
	if raw == nil {
		return SizeSelector{}, nil
	}
	if s, ok := raw.(string); ok {
		return SizeSelector{Property: s}, nil
	}
	if IsNumeric(raw) {
		f, ok := Narrow(raw)
		if !ok {
			return SizeSelector{}, fmt.Errorf("%w: number %v out of range", ErrInvalidStyle, raw)
		}
		return SizeSelector{Literal: f, IsLiteral: true}, nil
	}
	return SizeSelector{}, fmt.Errorf("%w: unsupported selector %T", ErrInvalidStyle, raw)
}

// ParseCaptionSelector 解析边标题配置: false 隐藏，true 显示关系类型，字符串为固定文本。
func ParseCaptionSelector(raw any) (CaptionSelector, error) {
	switch v := raw.(type) {
	case nil:
		return CaptionSelector{}, nil
	case bool:
		if v {
			return CaptionSelector{mode: captionType}, nil
		}
		return CaptionSelector{mode: captionHidden}, nil
	case string:
		if v == "" {
			return CaptionSelector{}, nil
		}
		return CaptionSelector{mode: captionText, text: v}, nil
	default:
		return CaptionSelector{}, fmt.Errorf("%w: unsupported caption %T", ErrInvalidStyle, raw)
	}
}

// HiddenCaption 构造一个隐藏标题的选择器
func HiddenCaption() CaptionSelector { return CaptionSelector{mode: captionHidden} }

// TextCaption 构造一个固定文本标题的选择器
func TextCaption(text string) CaptionSelector {
	if text == "" {
		return CaptionSelector{}
	}
	return CaptionSelector{mode: captionText, text: text}
}

// Resolve 根据关系类型计算最终标题
func (c CaptionSelector) Resolve(relType string) string {
	switch c.mode {
	case captionHidden:
		return ""
	case captionText:
		return c.text
	default:
		return relType
	}
}
