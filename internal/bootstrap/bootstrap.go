package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	hertzprom "github.com/hertz-contrib/monitor-prometheus"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"netvis/biz/dal/neo4jdal"
	"netvis/biz/handler/visualization"
	"netvis/biz/repo/neo4jrepo"
	"netvis/biz/router"
	"netvis/biz/service"
	dbInfra "netvis/infrastructure/database"
	"netvis/infrastructure/rabbitmq"
	"netvis/pkg/cache"
	"netvis/pkg/config"
	"netvis/pkg/metrics"
)

// Options 控制初始化哪些可选组件
type Options struct {
	// Messaging 为 true 且配置启用时连接 RabbitMQ (事件发布 + 远程命令)
	Messaging bool
	// WatchConfig 为 true 时监听配置文件变化并重新初始化可视化配置
	WatchConfig bool
}

// App 持有初始化完成的所有组件
type App struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Collector

	Driver  neo4j.DriverWithContext
	Redis   *redis.Client
	Service service.VisualizationService

	Publisher *rabbitmq.Publisher
	Consumer  *rabbitmq.Consumer
}

// configReloader 在服务创建之前就要交给配置监听，服务就绪后再绑定
type configReloader struct {
	mu     sync.Mutex
	svc    service.VisualizationService
	logger *zap.Logger
}

func (r *configReloader) bind(svc service.VisualizationService, logger *zap.Logger) {
	r.mu.Lock()
	r.svc, r.logger = svc, logger
	r.mu.Unlock()
}

func (r *configReloader) onChange(next *config.AppConfig) {
	r.mu.Lock()
	svc, logger := r.svc, r.logger
	r.mu.Unlock()
	if svc == nil {
		return
	}
	settings, err := service.SettingsFromConfig(next.Visualization)
	if err != nil {
		logger.Warn("新的可视化配置无效，忽略本次变更", zap.Error(err))
		return
	}
	svc.Reinit(context.Background(), settings)
}

// Init 函数执行所有应用程序的初始化步骤
func Init(ctx context.Context, configPath string, opts Options) (*App, error) {
	reloader := &configReloader{}
	var onChange func(*config.AppConfig)
	if opts.WatchConfig {
		onChange = reloader.onChange
	}

	// 1. 加载配置
	cfg, err := config.InitConfig(configPath, onChange)
	if err != nil {
		// 在 logger 初始化前，只能用标准 log
		log.Printf("Error: 加载配置失败: %v", err)
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	// 2. 初始化 Zap Logger (使用配置中的级别)
	logger := InitLogger(cfg.Logging.Level)
	logger.Info("Zap Logger 初始化完成", zap.String("level", cfg.Logging.Level))

	app := &App{Config: cfg, Logger: logger}
	app.Registry = prometheus.NewRegistry()
	app.Metrics = metrics.NewCollector("netvis", app.Registry)

	// 3. 初始化数据库连接
	app.Driver, err = dbInfra.InitNeo4j(ctx, cfg.Database.Neo4j, logger)
	if err != nil {
		logger.Error("初始化 Neo4j 失败", zap.Error(err))
		return nil, fmt.Errorf("初始化 Neo4j 失败: %w", err)
	}

	// 4. 初始化缓存 (可选)
	scalarCache, err := app.initCache(ctx)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	// 5. 初始化 DAL / Repository
	repoOpts := service.RepositoryOptions(cfg.Visualization.Derivation)
	repoOpts.Database = cfg.Database.Neo4j.Database
	repoOpts.Cache = scalarCache
	repoOpts.CacheTTL = time.Duration(cfg.Cache.TTLSeconds) * time.Second
	repoOpts.Logger = logger.Named("graph_repo")
	graphRepo := neo4jrepo.NewGraphRepository(app.Driver, neo4jdal.NewGraphDAL(), repoOpts)
	logger.Info("GraphRepository 创建成功")

	// 6. 初始化 Service
	settings, err := service.SettingsFromConfig(cfg.Visualization)
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("解析可视化配置失败: %w", err)
	}
	svcOpts := []service.Option{service.WithMetrics(app.Metrics)}

	// 7. 初始化消息队列 (可选)
	if opts.Messaging && cfg.RabbitMQ.Enabled {
		app.Publisher, err = rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
		if err != nil {
			app.Close(ctx)
			return nil, fmt.Errorf("初始化 RabbitMQ Publisher 失败: %w", err)
		}
		svcOpts = append(svcOpts, service.WithEventPublisher(app.Publisher, cfg.RabbitMQ.EventsRoutingKey))
	}

	app.Service = service.NewVisualizationService(graphRepo, settings, logger, svcOpts...)
	logger.Info("VisualizationService 创建成功",
		zap.String("container", settings.Container),
		zap.Int("label_styles", len(settings.Styles.Labels)),
		zap.Int("relationship_styles", len(settings.Styles.Relationships)))

	if opts.Messaging && cfg.RabbitMQ.Enabled {
		app.Consumer, err = rabbitmq.NewConsumer(
			cfg.RabbitMQ.URL,
			visualization.NewCommandHandler(app.Service, logger),
			rabbitmq.ConsumerOptions{
				ExchangeName: cfg.RabbitMQ.Exchange,
				QueueName:    cfg.RabbitMQ.CommandsQueue,
				RoutingKey:   cfg.RabbitMQ.CommandsRoutingKey,
				DurableQueue: true,
			},
			logger,
		)
		if err != nil {
			app.Close(ctx)
			return nil, fmt.Errorf("初始化 RabbitMQ Consumer 失败: %w", err)
		}
	}

	// 8. 注入依赖到 Handler，绑定配置热更新
	visualization.SetVisualizationService(app.Service, logger)
	reloader.bind(app.Service, logger)
	logger.Info("依赖注入 Handler 完成.")

	return app, nil
}

func (a *App) initCache(ctx context.Context) (cache.ScalarCache, error) {
	if !a.Config.Cache.Enabled {
		a.Logger.Info("派生结果缓存未启用")
		return nil, nil
	}
	client, err := dbInfra.InitRedis(ctx, a.Config.Database.Redis, a.Logger)
	if err != nil {
		a.Logger.Error("初始化 Redis 失败", zap.Error(err))
		return nil, fmt.Errorf("初始化 Redis 失败: %w", err)
	}
	a.Redis = client

	c, err := cache.NewRedisCache(client, a.Config.Cache.Prefix, a.Config.Cache.EstimatedKeys, a.Config.Cache.FpRate)
	if err != nil {
		return nil, fmt.Errorf("创建 Redis 缓存实例失败: %w", err)
	}
	a.Logger.Info("Redis 缓存实例创建成功")
	return c, nil
}

// NewServer 创建 Hertz 服务器并注册路由
func (a *App) NewServer() *server.Hertz {
	opts := []hertzconfig.Option{server.WithHostPorts(a.Config.Server.Address)}
	if a.Config.Server.MetricsAddress != "" {
		opts = append(opts, server.WithTracer(hertzprom.NewServerTracer(
			a.Config.Server.MetricsAddress,
			a.Config.Server.MetricsPath,
			hertzprom.WithRegistry(a.Registry),
		)))
		a.Logger.Info("Prometheus 指标端点已启用",
			zap.String("address", a.Config.Server.MetricsAddress),
			zap.String("path", a.Config.Server.MetricsPath))
	}

	h := server.New(opts...)
	router.Register(&h.RouterGroup)
	a.Logger.Info("Hertz 服务器实例创建完成.", zap.String("address", a.Config.Server.Address))
	return h
}

// Close 按依赖的逆序释放资源
func (a *App) Close(ctx context.Context) {
	if a.Consumer != nil {
		if err := a.Consumer.Shutdown(); err != nil {
			a.Logger.Warn("关闭 RabbitMQ Consumer 失败", zap.Error(err))
		}
	}
	if a.Service != nil {
		a.Service.Wait()
	}
	if a.Publisher != nil {
		a.Publisher.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("关闭 Redis 失败", zap.Error(err))
		}
	}
	if a.Driver != nil {
		if err := a.Driver.Close(ctx); err != nil {
			a.Logger.Warn("关闭 Neo4j 驱动失败", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}

// InitLogger 按配置的级别创建 JSON 格式的 zap logger
func InitLogger(level string) *zap.Logger {
	logLevel := zapcore.InfoLevel // 默认为 Info
	switch level {
	case "debug":
		logLevel = zapcore.DebugLevel
	case "", "info":
		logLevel = zapcore.InfoLevel
	case "warn":
		logLevel = zapcore.WarnLevel
	case "error":
		logLevel = zapcore.ErrorLevel
	default:
		log.Printf("Warning: 无效的日志级别 '%s' 在配置中，将使用 'info'", level)
	}

	// Development 编码配置输出更易读，包括调用者信息
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		logLevel,
	)
	return zap.New(core, zap.AddCaller())
}
