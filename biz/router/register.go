package router

import (
	"github.com/cloudwego/hertz/pkg/route"

	"netvis/biz/handler/visualization"
)

// Register 注册所有路由
func Register(r *route.RouterGroup) {
	r.GET("/", visualization.IndexPage)
	r.GET("/healthz", visualization.Healthz)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/network", visualization.GetNetwork)

		network := v1.Group("/network")
		network.POST("/render", visualization.RenderNetwork)
		network.POST("/reload", visualization.ReloadNetwork)
		network.POST("/clear", visualization.ClearNetwork)
		network.POST("/stabilize", visualization.StabilizeNetwork)
		network.POST("/cypher", visualization.RenderWithCypher)
		network.POST("/reinit", visualization.ReinitNetwork)
	}
}
