package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestInitConfig_Defaults(t *testing.T) {
	cfg, err := InitConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "viz", cfg.Visualization.Container)
	assert.Equal(t, "bolt://localhost:7687", cfg.Database.Neo4j.URI)
	assert.Equal(t, "neo4j", cfg.Database.Neo4j.Username)
	assert.Equal(t, "neo4j", cfg.Database.Neo4j.Password)
	assert.Equal(t, "MATCH (n)-[r]->(m) RETURN n, r, m LIMIT $limit", cfg.Visualization.InitialCypher)
	assert.Equal(t, 30, cfg.Visualization.ResultLimit)
	assert.False(t, cfg.Visualization.Arrows)
	assert.True(t, cfg.Visualization.EscapeTooltips)
	assert.Empty(t, cfg.Visualization.Labels)
	assert.Empty(t, cfg.Visualization.Relationships)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.RabbitMQ.Enabled)
}

func TestInitConfig_File(t *testing.T) {
	path := writeConfig(t, `
server:
  address: "127.0.0.1:9000"
database:
  neo4j:
    uri: "neo4j://graph:7687"
    username: "reader"
    password: "secret"
    database: "movies"
logging:
  level: debug
visualization:
  container: "graph"
  initial_cypher: "MATCH p=()-[]->() RETURN p LIMIT $limit"
  result_limit: 100
  arrows: true
  labels:
    - label: Person
      caption: name
      size: pagerank
      community: community
    - label: Movie
      size: 3
      size_cypher: "MATCH (m)<--() WHERE id(m) = $id RETURN count(*)"
  relationships:
    - type: ACTED_IN
      thickness: weight
      caption: false
    - type: DIRECTED
      thickness: 2.5
      caption: "directed"
`)

	cfg, err := InitConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
	assert.Equal(t, "neo4j://graph:7687", cfg.Database.Neo4j.URI)
	assert.Equal(t, "movies", cfg.Database.Neo4j.Database)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "graph", cfg.Visualization.Container)
	assert.Equal(t, 100, cfg.Visualization.ResultLimit)
	assert.True(t, cfg.Visualization.Arrows)
	// 未配置的项保留默认值
	assert.True(t, cfg.Visualization.EscapeTooltips)

	require.Len(t, cfg.Visualization.Labels, 2)
	// 标签保留大小写
	assert.Equal(t, "Person", cfg.Visualization.Labels[0].Label)
	assert.Equal(t, "pagerank", cfg.Visualization.Labels[0].Size)
	assert.Equal(t, "Movie", cfg.Visualization.Labels[1].Label)
	assert.EqualValues(t, 3, cfg.Visualization.Labels[1].Size)
	assert.NotEmpty(t, cfg.Visualization.Labels[1].SizeCypher)

	require.Len(t, cfg.Visualization.Relationships, 2)
	assert.Equal(t, "ACTED_IN", cfg.Visualization.Relationships[0].Type)
	assert.Equal(t, false, cfg.Visualization.Relationships[0].Caption)
	assert.Equal(t, 2.5, cfg.Visualization.Relationships[1].Thickness)
}

func TestInitConfig_EnvOverride(t *testing.T) {
	t.Setenv("NETVIS_DATABASE_NEO4J_PASSWORD", "from-env")
	t.Setenv("NETVIS_VISUALIZATION_ARROWS", "true")

	cfg, err := InitConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Database.Neo4j.Password)
	assert.True(t, cfg.Visualization.Arrows)
}

func TestInitConfig_Invalid(t *testing.T) {
	t.Run("文件不存在", func(t *testing.T) {
		_, err := InitConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
		assert.Error(t, err)
	})

	t.Run("日志级别非法", func(t *testing.T) {
		path := writeConfig(t, "logging:\n  level: verbose\n")
		_, err := InitConfig(path, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Level")
	})

	t.Run("标签样式缺少 label", func(t *testing.T) {
		path := writeConfig(t, "visualization:\n  labels:\n    - caption: name\n")
		_, err := InitConfig(path, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Label")
	})

	t.Run("启用 RabbitMQ 但缺少地址", func(t *testing.T) {
		path := writeConfig(t, "rabbitmq:\n  enabled: true\n  url: \"\"\n")
		_, err := InitConfig(path, nil)
		assert.Error(t, err)
	})
}

func TestValidateVisualization(t *testing.T) {
	ok := &VisualizationConfig{Container: "viz", InitialCypher: "MATCH (n) RETURN n"}
	assert.NoError(t, ValidateVisualization(ok))

	missing := &VisualizationConfig{InitialCypher: "MATCH (n) RETURN n"}
	assert.Error(t, ValidateVisualization(missing))

	badRel := &VisualizationConfig{
		Container:     "viz",
		InitialCypher: "MATCH (n) RETURN n",
		Relationships: []RelationshipStyleConfig{{Caption: true}},
	}
	assert.Error(t, ValidateVisualization(badRel))
}

func TestInitConfig_SampleFile(t *testing.T) {
	cfg, err := InitConfig(filepath.Join("..", "..", "conf", "config.yaml"), nil)
	require.NoError(t, err)

	require.Len(t, cfg.Visualization.Labels, 2)
	assert.Equal(t, "Character", cfg.Visualization.Labels[0].Label)
	assert.Equal(t, "pagerank", cfg.Visualization.Labels[0].Size)
	assert.NotEmpty(t, cfg.Visualization.Labels[1].SizeCypher)
	require.Len(t, cfg.Visualization.Relationships, 2)
	assert.Equal(t, false, cfg.Visualization.Relationships[0].Caption)
	assert.Equal(t, ":9091", cfg.Server.MetricsAddress)
}

func TestDefaultVisualizationConfig(t *testing.T) {
	cfg := DefaultVisualizationConfig()
	assert.Equal(t, "viz", cfg.Container)
	assert.Equal(t, "MATCH (n)-[r]->(m) RETURN n, r, m LIMIT $limit", cfg.InitialCypher)
	assert.Equal(t, 30, cfg.ResultLimit)
	assert.True(t, cfg.EscapeTooltips)
	assert.False(t, cfg.Arrows)
	assert.Equal(t, 50.0, cfg.Derivation.QPS)
	assert.Equal(t, 0.8, cfg.Derivation.Breaker.FailureThreshold)
	assert.NoError(t, ValidateVisualization(&cfg))
}
