package service

import (
	"fmt"
	"strings"
	"time"

	"netvis/biz/mapper"
	"netvis/biz/model/graph"
	"netvis/biz/repo/neo4jrepo"
	"netvis/pkg/config"
)

// Settings 是可视化控制器使用的不可变配置。
// 只能通过 Reinit 整体替换。
type Settings struct {
	Container      string
	Query          string
	ResultLimit    int
	Arrows         bool
	EscapeTooltips bool
	Styles         graph.StyleConfig
}

// SettingsFromConfig 将配置文件中的可视化配置解析为 Settings
func SettingsFromConfig(cfg config.VisualizationConfig) (Settings, error) {
	styles := graph.StyleConfig{
		Labels:        make(map[string]graph.LabelStyle, len(cfg.Labels)),
		Relationships: make(map[string]graph.RelationshipStyle, len(cfg.Relationships)),
	}

	for _, l := range cfg.Labels {
		if l.Label == "" {
			return Settings{}, fmt.Errorf("%w: label style without label", graph.ErrInvalidStyle)
		}
		if _, dup := styles.Labels[l.Label]; dup {
			return Settings{}, fmt.Errorf("%w: duplicate label %q", graph.ErrInvalidStyle, l.Label)
		}
		size, err := graph.ParseSizeSelector(l.Size)
		if err != nil {
			return Settings{}, fmt.Errorf("label %q size: %w", l.Label, err)
		}
		styles.Labels[l.Label] = graph.LabelStyle{
			Caption:    l.Caption,
			Size:       size,
			SizeCypher: strings.TrimSpace(l.SizeCypher),
			Community:  l.Community,
		}
	}

	for _, r := range cfg.Relationships {
		if r.Type == "" {
			return Settings{}, fmt.Errorf("%w: relationship style without type", graph.ErrInvalidStyle)
		}
		if _, dup := styles.Relationships[r.Type]; dup {
			return Settings{}, fmt.Errorf("%w: duplicate relationship type %q", graph.ErrInvalidStyle, r.Type)
		}
		thickness, err := graph.ParseSizeSelector(r.Thickness)
		if err != nil {
			return Settings{}, fmt.Errorf("relationship %q thickness: %w", r.Type, err)
		}
		caption, err := graph.ParseCaptionSelector(r.Caption)
		if err != nil {
			return Settings{}, fmt.Errorf("relationship %q caption: %w", r.Type, err)
		}
		styles.Relationships[r.Type] = graph.RelationshipStyle{Thickness: thickness, Caption: caption}
	}

	return Settings{
		Container:      cfg.Container,
		Query:          cfg.InitialCypher,
		ResultLimit:    cfg.ResultLimit,
		Arrows:         cfg.Arrows,
		EscapeTooltips: cfg.EscapeTooltips,
		Styles:         styles,
	}, nil
}

// RepositoryOptions 将派生查询的限流/熔断配置转换为仓库参数
func RepositoryOptions(cfg config.DerivationConfig) neo4jrepo.Options {
	return neo4jrepo.Options{
		DeriveQPS:   cfg.QPS,
		DeriveBurst: cfg.Burst,
		Breaker: neo4jrepo.BreakerSettings{
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         time.Duration(cfg.Breaker.IntervalSeconds) * time.Second,
			Timeout:          time.Duration(cfg.Breaker.TimeoutSeconds) * time.Second,
			MinRequests:      cfg.Breaker.MinRequests,
			FailureThreshold: cfg.Breaker.FailureThreshold,
		},
	}
}

func (s Settings) params() map[string]any {
	return map[string]any{"limit": s.ResultLimit}
}

func (s Settings) mapperOptions() mapper.Options {
	return mapper.Options{EscapeTooltips: s.EscapeTooltips}
}
