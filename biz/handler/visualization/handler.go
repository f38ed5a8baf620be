package visualization

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"

	"netvis/biz/model/graph"
	"netvis/biz/service"
	"netvis/pkg/config"
)

var (
	visualizationService service.VisualizationService
	logger               = zap.NewNop()
)

// SetVisualizationService 注入 service 与 logger，在注册路由前调用
func SetVisualizationService(svc service.VisualizationService, l *zap.Logger) {
	visualizationService = svc
	if l != nil {
		logger = l.Named("visualization_handler")
	}
}

// NetworkResponse 是所有可视化接口的统一响应体
type NetworkResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Network *graph.Snapshot `json:"network,omitempty"`
}

// CypherRequest 是按指定查询渲染的请求体
type CypherRequest struct {
	Query string `json:"query"`
}

func fail(c *app.RequestContext, status int, msg string) {
	c.JSON(status, &NetworkResponse{Success: false, Message: msg})
}

func ok(c *app.RequestContext, msg string) {
	snap := visualizationService.Snapshot()
	c.JSON(consts.StatusOK, &NetworkResponse{Success: true, Message: msg, Network: &snap})
}

func ready(c *app.RequestContext) bool {
	if visualizationService == nil {
		logger.Error("VisualizationService 未初始化")
		fail(c, consts.StatusInternalServerError, "服务未初始化")
		return false
	}
	return true
}

// renderResult 渲染失败时仍返回快照，状态和错误信息在快照中
func renderResult(c *app.RequestContext, err error, msg string) {
	if err == nil {
		ok(c, msg)
		return
	}
	if errors.Is(err, service.ErrEmptyQuery) {
		fail(c, consts.StatusBadRequest, err.Error())
		return
	}
	logger.Error("渲染失败", zap.Error(err))
	snap := visualizationService.Snapshot()
	c.JSON(consts.StatusBadGateway, &NetworkResponse{Success: false, Message: err.Error(), Network: &snap})
}

// GetNetwork .
// @router /api/v1/network [GET]
func GetNetwork(ctx context.Context, c *app.RequestContext) {
	if !ready(c) {
		return
	}
	ok(c, "ok")
}

// RenderNetwork .
// @router /api/v1/network/render [POST]
func RenderNetwork(ctx context.Context, c *app.RequestContext) {
	if !ready(c) {
		return
	}
	renderResult(c, visualizationService.Render(ctx), "渲染完成")
}

// ReloadNetwork .
// @router /api/v1/network/reload [POST]
func ReloadNetwork(ctx context.Context, c *app.RequestContext) {
	if !ready(c) {
		return
	}
	renderResult(c, visualizationService.Reload(ctx), "重新加载完成")
}

// ClearNetwork .
// @router /api/v1/network/clear [POST]
func ClearNetwork(ctx context.Context, c *app.RequestContext) {
	if !ready(c) {
		return
	}
	visualizationService.ClearNetwork(ctx)
	ok(c, "网络已清空")
}

// StabilizeNetwork .
// @router /api/v1/network/stabilize [POST]
func StabilizeNetwork(ctx context.Context, c *app.RequestContext) {
	if !ready(c) {
		return
	}
	if err := visualizationService.Stabilize(ctx); err != nil {
		if errors.Is(err, service.ErrNoView) {
			fail(c, consts.StatusConflict, err.Error())
			return
		}
		fail(c, consts.StatusInternalServerError, err.Error())
		return
	}
	ok(c, "视图已稳定")
}

// RenderWithCypher .
// @router /api/v1/network/cypher [POST]
func RenderWithCypher(ctx context.Context, c *app.RequestContext) {
	if !ready(c) {
		return
	}
	var req CypherRequest
	if err := c.BindJSON(&req); err != nil {
		fail(c, consts.StatusBadRequest, "请求体解析失败: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		fail(c, consts.StatusBadRequest, service.ErrEmptyQuery.Error())
		return
	}
	renderResult(c, visualizationService.RenderWithCypher(ctx, req.Query), "渲染完成")
}

// ReinitNetwork .
// @router /api/v1/network/reinit [POST]
func ReinitNetwork(ctx context.Context, c *app.RequestContext) {
	if !ready(c) {
		return
	}
	// 请求中省略的字段沿用默认值 (例如 result_limit=30, escape_tooltips=true)
	req := config.DefaultVisualizationConfig()
	if err := c.BindJSON(&req); err != nil {
		fail(c, consts.StatusBadRequest, "请求体解析失败: "+err.Error())
		return
	}
	if err := config.ValidateVisualization(&req); err != nil {
		fail(c, consts.StatusBadRequest, err.Error())
		return
	}
	settings, err := service.SettingsFromConfig(req)
	if err != nil {
		fail(c, consts.StatusBadRequest, err.Error())
		return
	}
	visualizationService.Reinit(ctx, settings)
	ok(c, "配置已重新初始化")
}

// Healthz .
// @router /healthz [GET]
func Healthz(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}
