package visualization

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"netvis/biz/model/graph"
	"netvis/biz/service"
)

// fakeService 记录调用并返回预设结果
type fakeService struct {
	mu        sync.Mutex
	calls     []string
	renderErr error
	stabErr   error
	query     string
	settings  service.Settings
	snap      graph.Snapshot
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeService) Render(ctx context.Context) error { f.record("render"); return f.renderErr }
func (f *fakeService) ClearNetwork(ctx context.Context) { f.record("clear") }
func (f *fakeService) Reload(ctx context.Context) error { f.record("reload"); return f.renderErr }
func (f *fakeService) RenderWithCypher(ctx context.Context, query string) error {
	f.record("cypher")
	f.query = query
	return f.renderErr
}
func (f *fakeService) Stabilize(ctx context.Context) error { f.record("stabilize"); return f.stabErr }
func (f *fakeService) Reinit(ctx context.Context, settings service.Settings) {
	f.record("reinit")
	f.settings = settings
}
func (f *fakeService) Snapshot() graph.Snapshot   { return f.snap }
func (f *fakeService) Settings() service.Settings { return f.settings }
func (f *fakeService) Wait()                      {}

func newEngine(t *testing.T, svc service.VisualizationService) *route.Engine {
	t.Helper()
	SetVisualizationService(svc, zap.NewNop())
	t.Cleanup(func() { SetVisualizationService(nil, nil) })

	engine := route.NewEngine(config.NewOptions([]config.Option{}))
	engine.GET("/", IndexPage)
	engine.GET("/healthz", Healthz)
	engine.GET("/api/v1/network", GetNetwork)
	engine.POST("/api/v1/network/render", RenderNetwork)
	engine.POST("/api/v1/network/reload", ReloadNetwork)
	engine.POST("/api/v1/network/clear", ClearNetwork)
	engine.POST("/api/v1/network/stabilize", StabilizeNetwork)
	engine.POST("/api/v1/network/cypher", RenderWithCypher)
	engine.POST("/api/v1/network/reinit", ReinitNetwork)
	return engine
}

func jsonBody(s string) *ut.Body {
	return &ut.Body{Body: strings.NewReader(s), Len: len(s)}
}

var jsonHeader = ut.Header{Key: "Content-Type", Value: "application/json"}

func decode(t *testing.T, body []byte) NetworkResponse {
	t.Helper()
	var resp NetworkResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func sampleSnapshot() graph.Snapshot {
	opts := graph.NewOptions(false)
	return graph.Snapshot{
		Generation: 2,
		State:      "idle",
		Query:      "MATCH (n) RETURN n",
		Nodes:      []graph.VisualNode{{ID: 1, Label: "Alice", Value: 1, Group: "Person"}},
		Edges:      []graph.VisualEdge{},
		View:       &graph.View{Container: "viz", Options: opts, Revision: 1},
	}
}

func TestGetNetwork(t *testing.T) {
	svc := &fakeService{snap: sampleSnapshot()}
	engine := newEngine(t, svc)

	w := ut.PerformRequest(engine, consts.MethodGet, "/api/v1/network", nil)
	resp := w.Result()
	assert.Equal(t, consts.StatusOK, resp.StatusCode())

	out := decode(t, resp.Body())
	assert.True(t, out.Success)
	require.NotNil(t, out.Network)
	assert.Equal(t, uint64(2), out.Network.Generation)
	require.Len(t, out.Network.Nodes, 1)
	assert.Equal(t, "Alice", out.Network.Nodes[0].Label)
	require.NotNil(t, out.Network.View)
	assert.Equal(t, "dot", out.Network.View.Options.Nodes.Shape)
}

func TestGetNetwork_VisFieldNames(t *testing.T) {
	svc := &fakeService{snap: sampleSnapshot()}
	engine := newEngine(t, svc)

	w := ut.PerformRequest(engine, consts.MethodGet, "/api/v1/network", nil)
	body := string(w.Result().Body())
	for _, field := range []string{`"id":1`, `"label":"Alice"`, `"value":1`, `"group":"Person"`, `"improvedLayout":false`, `"timestep":0.4`} {
		assert.Contains(t, body, field)
	}
}

func TestLifecycleEndpoints(t *testing.T) {
	tests := []struct {
		path string
		call string
	}{
		{"/api/v1/network/render", "render"},
		{"/api/v1/network/reload", "reload"},
		{"/api/v1/network/clear", "clear"},
		{"/api/v1/network/stabilize", "stabilize"},
	}
	for _, tc := range tests {
		t.Run(tc.call, func(t *testing.T) {
			svc := &fakeService{snap: sampleSnapshot()}
			engine := newEngine(t, svc)

			w := ut.PerformRequest(engine, consts.MethodPost, tc.path, nil)
			assert.Equal(t, consts.StatusOK, w.Result().StatusCode())
			assert.True(t, decode(t, w.Result().Body()).Success)
			assert.Equal(t, []string{tc.call}, svc.calls)
		})
	}
}

func TestRenderFailure(t *testing.T) {
	snap := sampleSnapshot()
	snap.State = "failed"
	snap.LastError = "connection refused"
	svc := &fakeService{snap: snap, renderErr: errors.New("render x: connection refused")}
	engine := newEngine(t, svc)

	w := ut.PerformRequest(engine, consts.MethodPost, "/api/v1/network/reload", nil)
	assert.Equal(t, consts.StatusBadGateway, w.Result().StatusCode())
	out := decode(t, w.Result().Body())
	assert.False(t, out.Success)
	require.NotNil(t, out.Network)
	assert.Equal(t, "failed", out.Network.State)
}

func TestStabilize_NoView(t *testing.T) {
	svc := &fakeService{stabErr: service.ErrNoView}
	engine := newEngine(t, svc)

	w := ut.PerformRequest(engine, consts.MethodPost, "/api/v1/network/stabilize", nil)
	assert.Equal(t, consts.StatusConflict, w.Result().StatusCode())
	assert.False(t, decode(t, w.Result().Body()).Success)
}

func TestRenderWithCypher(t *testing.T) {
	t.Run("成功", func(t *testing.T) {
		svc := &fakeService{snap: sampleSnapshot()}
		engine := newEngine(t, svc)

		w := ut.PerformRequest(engine, consts.MethodPost, "/api/v1/network/cypher",
			jsonBody(`{"query":"MATCH (n:Person) RETURN n"}`), jsonHeader)
		assert.Equal(t, consts.StatusOK, w.Result().StatusCode())
		assert.Equal(t, "MATCH (n:Person) RETURN n", svc.query)
	})

	t.Run("空查询", func(t *testing.T) {
		svc := &fakeService{}
		engine := newEngine(t, svc)

		w := ut.PerformRequest(engine, consts.MethodPost, "/api/v1/network/cypher", jsonBody(`{"query":"  "}`), jsonHeader)
		assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode())
		assert.Empty(t, svc.calls)
	})

	t.Run("请求体非法", func(t *testing.T) {
		svc := &fakeService{}
		engine := newEngine(t, svc)

		w := ut.PerformRequest(engine, consts.MethodPost, "/api/v1/network/cypher", jsonBody(`{"query":`), jsonHeader)
		assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode())
		assert.Empty(t, svc.calls)
	})
}

func TestReinit(t *testing.T) {
	t.Run("成功", func(t *testing.T) {
		svc := &fakeService{snap: sampleSnapshot()}
		engine := newEngine(t, svc)

		body := `{
			"container": "graph",
			"initial_cypher": "MATCH (n) RETURN n LIMIT $limit",
			"result_limit": 50,
			"arrows": true,
			"escape_tooltips": true,
			"labels": [{"label": "Person", "caption": "name", "size": 2}],
			"relationships": [{"type": "KNOWS", "caption": false, "thickness": "weight"}]
		}`
		w := ut.PerformRequest(engine, consts.MethodPost, "/api/v1/network/reinit", jsonBody(body), jsonHeader)
		require.Equal(t, consts.StatusOK, w.Result().StatusCode(), string(w.Result().Body()))

		assert.Equal(t, []string{"reinit"}, svc.calls)
		assert.Equal(t, "graph", svc.settings.Container)
		assert.Equal(t, 50, svc.settings.ResultLimit)
		assert.True(t, svc.settings.Arrows)
		assert.Equal(t, 2.0, svc.settings.Styles.Label("Person").Size.Literal)
		assert.Equal(t, "", svc.settings.Styles.Relationship("KNOWS").Caption.Resolve("KNOWS"))
	})

	t.Run("省略的字段使用默认值", func(t *testing.T) {
		svc := &fakeService{snap: sampleSnapshot()}
		engine := newEngine(t, svc)

		w := ut.PerformRequest(engine, consts.MethodPost, "/api/v1/network/reinit",
			jsonBody(`{"container":"viz","initial_cypher":"MATCH (n) RETURN n LIMIT $limit"}`), jsonHeader)
		require.Equal(t, consts.StatusOK, w.Result().StatusCode(), string(w.Result().Body()))

		assert.Equal(t, []string{"reinit"}, svc.calls)
		assert.Equal(t, 30, svc.settings.ResultLimit)
		assert.True(t, svc.settings.EscapeTooltips)
		assert.False(t, svc.settings.Arrows)
		assert.Equal(t, "MATCH (n) RETURN n LIMIT $limit", svc.settings.Query)
	})

	t.Run("校验失败", func(t *testing.T) {
		svc := &fakeService{}
		engine := newEngine(t, svc)

		w := ut.PerformRequest(engine, consts.MethodPost, "/api/v1/network/reinit",
			jsonBody(`{"container": "", "initial_cypher": "MATCH (n) RETURN n"}`), jsonHeader)
		assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode())
		assert.Empty(t, svc.calls)
	})

	t.Run("样式非法", func(t *testing.T) {
		svc := &fakeService{}
		engine := newEngine(t, svc)

		w := ut.PerformRequest(engine, consts.MethodPost, "/api/v1/network/reinit",
			jsonBody(`{"container":"viz","initial_cypher":"RETURN 1","relationships":[{"type":"R","caption":3}]}`), jsonHeader)
		assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode())
		assert.Empty(t, svc.calls)
	})
}

func TestIndexPage(t *testing.T) {
	svc := &fakeService{snap: sampleSnapshot(), settings: service.Settings{Container: "viz"}}
	engine := newEngine(t, svc)

	w := ut.PerformRequest(engine, consts.MethodGet, "/", nil)
	resp := w.Result()
	assert.Equal(t, consts.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Header.ContentType()), "text/html")
	body := string(resp.Body())
	assert.Contains(t, body, `<div id="viz"></div>`)
	assert.Contains(t, body, "vis.Network")
	assert.Contains(t, body, "MATCH (n) RETURN n")
}

func TestIndexPage_PollingKeepsLayout(t *testing.T) {
	engine := newEngine(t, &fakeService{settings: service.Settings{Container: "viz"}})

	w := ut.PerformRequest(engine, consts.MethodGet, "/", nil)
	require.Equal(t, consts.StatusOK, w.Result().StatusCode())
	body := string(w.Result().Body())

	// 轮询只做差量写入，不能整体清空重建节点，否则布局和物理模拟会被重置
	assert.NotContains(t, body, "nodes.clear()")
	assert.NotContains(t, body, "edges.clear()")
	assert.NotContains(t, body, "setData(")
	assert.Contains(t, body, "set.update(changed)")
	assert.Contains(t, body, "set.remove(removed)")
	assert.Contains(t, body, "network.stopSimulation()")
}

func TestHealthz(t *testing.T) {
	engine := newEngine(t, &fakeService{})
	w := ut.PerformRequest(engine, consts.MethodGet, "/healthz", nil)
	assert.Equal(t, consts.StatusOK, w.Result().StatusCode())
}

func TestServiceNotInitialized(t *testing.T) {
	engine := newEngine(t, nil)
	w := ut.PerformRequest(engine, consts.MethodGet, "/api/v1/network", nil)
	assert.Equal(t, consts.StatusInternalServerError, w.Result().StatusCode())
}
