package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"job-agent-go/internal/api/handler"
	"job-agent-go/internal/api/router"
	"job-agent-go/internal/config"
	"job-agent-go/internal/generator"
	"job-agent-go/internal/llm"
	"job-agent-go/internal/logger"
	"job-agent-go/internal/parser"
	"job-agent-go/internal/storage"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzerolog "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.Parse()

	// 1. 加载配置文件
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	initLogger(cfg)

	// 2. 初始化存储管理器
	ctx := context.Background()
	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储管理器失败")
	}
	defer storageManager.Close()

	if storageManager.MySQL == nil {
		logger.Fatal().Msg("MySQL实例未初始化")
	}
	if storageManager.MinIO == nil {
		logger.Fatal().Msg("MinIO实例未初始化")
	}

	// 3. 初始化生成流水线
	gen, err := initializeGenerator(ctx, cfg, storageManager)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化文档生成器失败")
	}
	logger.Info().Msg("文档生成器初始化成功")

	// 4. 初始化API处理器
	handlers := router.Handlers{
		AI:          handler.NewAIHandler(cfg, gen),
		Resume:      handler.NewResumeHandler(cfg, storageManager, gen),
		Job:         handler.NewJobHandler(cfg, storageManager),
		Document:    handler.NewDocumentHandler(storageManager),
		Application: handler.NewApplicationHandler(storageManager),
	}

	// 5. 启动自动生成消费者
	if storageManager.RabbitMQ != nil {
		workers := cfg.RabbitMQ.AutoGenWorkers
		if workers <= 0 {
			workers = 1
		}
		for i := 0; i < workers; i++ {
			if err := handlers.Resume.StartAutoGenerateConsumer(logger.WithContext(context.Background())); err != nil {
				logger.Fatal().Err(err).Msg("启动自动生成消费者失败")
			}
		}
		logger.Info().Int("workers", workers).Msg("自动生成消费者启动成功")
	} else {
		logger.Warn().Msg("RabbitMQ未配置，简历上传后不会触发自动生成")
	}

	// 6. 创建HTTP服务器并注册路由
	h := server.Default(
		server.WithHostPorts(cfg.Server.Address),
	)
	router.RegisterRoutes(h, cfg, storageManager, handlers)

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("HTTP服务器启动")
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	// 7. 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	// 8. 优雅关闭HTTP服务器
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}

	logger.Info().Msg("优雅退出完成")
}

// initLogger 初始化日志系统并接管hertz框架日志
func initLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	logger.Logger = logger.Logger.With().
		Str("app", "job-agent-go").
		Logger()

	hlog.SetLogger(hertzzerolog.From(logger.Logger))
}

// initializeGenerator 组装文本提取、模型网关和生成编排器
func initializeGenerator(ctx context.Context, cfg *config.Config, storageManager *storage.Storage) (*generator.Generator, error) {
	// 1. 模型客户端: 按任务选择模型 + 限流 + 重试 + 超时
	model, err := llm.NewAliyunQwenChatModel(cfg.Aliyun.APIKey, cfg.Aliyun.Model, cfg.Aliyun.APIURL)
	if err != nil {
		return nil, err
	}
	model.WithModelResolver(cfg.GetModelForTask)
	client := llm.NewRateLimitedCompletionClient(model, cfg.Generator.QPM).
		WithRetryPolicy(time.Duration(cfg.Generator.RetryWaitSeconds)*time.Second, cfg.Generator.MaxRetries)
	gateway := llm.NewGateway(client, time.Duration(cfg.Generator.InvokeTimeoutSeconds)*time.Second)

	// 2. 文本提取器: 按配置选择Tika服务器或本地PDF解析
	var extractor parser.DocumentExtractor
	if cfg.Tika.Type == "eino" || cfg.Tika.ServerURL == "" {
		extractor, err = parser.NewEinoPDFTextExtractor(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("使用eino PDF解析器")
	} else {
		extractor = parser.NewTikaDocumentExtractor(
			cfg.Tika.ServerURL,
			parser.WithTimeout(time.Duration(cfg.Tika.TimeoutSeconds)*time.Second),
			parser.WithMinimalMetadata(true),
		)
		logger.Info().Str("server", cfg.Tika.ServerURL).Msg("使用Tika文本提取器")
	}

	// 3. 简历文本来源，Redis未配置时不做缓存
	var cache parser.TextCache
	if storageManager.Redis != nil {
		cache = storageManager.Redis
	}
	textSource := parser.NewResumeTextSource(
		storageManager.MinIO,
		cache,
		extractor,
		log.New(os.Stderr, "[ResumeText] ", log.LstdFlags),
	)

	return generator.NewGenerator(&generator.Components{
		Store:      storageManager.MySQL,
		TextSource: textSource,
		Model:      gateway,
	}, &generator.Settings{})
}
