package visualization

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"
)

//go:embed page.html.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

// pageData 是宿主页面模板的参数
type pageData struct {
	Title         string
	Container     string
	Query         string
	APIPrefix     string
	RefreshMillis int
}

// IndexPage 返回承载 vis.Network 的宿主页面
// @router / [GET]
func IndexPage(ctx context.Context, c *app.RequestContext) {
	if !ready(c) {
		return
	}
	settings := visualizationService.Settings()
	data := pageData{
		Title:         "netvis",
		Container:     settings.Container,
		Query:         visualizationService.Snapshot().Query,
		APIPrefix:     "/api/v1",
		RefreshMillis: 2000,
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		logger.Error("渲染宿主页面失败", zap.Error(err))
		fail(c, consts.StatusInternalServerError, "页面渲染失败")
		return
	}
	c.Data(consts.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
