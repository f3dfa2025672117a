package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/config"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/Mangesh9326/Job-Platform/internal/api/handler"
	"github.com/Mangesh9326/Job-Platform/internal/api/middleware"
	"github.com/Mangesh9326/Job-Platform/internal/api/router"
	appconfig "github.com/Mangesh9326/Job-Platform/internal/config"
	"github.com/Mangesh9326/Job-Platform/internal/constants"
	"github.com/Mangesh9326/Job-Platform/internal/extraction"
	"github.com/Mangesh9326/Job-Platform/internal/logger"
	"github.com/Mangesh9326/Job-Platform/internal/outbox"
	"github.com/Mangesh9326/Job-Platform/internal/parser"
	"github.com/Mangesh9326/Job-Platform/internal/profile"
	"github.com/Mangesh9326/Job-Platform/internal/ratelimit"
	"github.com/Mangesh9326/Job-Platform/internal/resume"
	"github.com/Mangesh9326/Job-Platform/internal/storage"
	"github.com/Mangesh9326/Job-Platform/internal/tracing"
)

var (
	version     = "1.0.0"        //nolint:gochecknoglobals
	serviceName = "job-platform" //nolint:gochecknoglobals
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "Path to config file")
	pflag.Parse()

	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg, err := appconfig.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	initLogger(cfg)
	logger.Info().Str("version", version).Str("address", cfg.Server.Address).Msg("配置加载成功")

	if err := run(cfg); err != nil {
		logger.Fatal().Err(err).Msg("服务异常退出")
	}
	logger.Info().Msg("优雅退出完成")
}

func initLogger(cfg *appconfig.Config) {
	zl := logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
		File:         cfg.Logger.File,
	})
	// 设置 Hertz 的 glog
	glog.SetLogger(hertzadapter.From(zl))
	if cfg.Logger.Level == "debug" {
		glog.SetLevel(glog.LevelDebug)
	} else {
		glog.SetLevel(glog.LevelInfo)
	}
}

func run(cfg *appconfig.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serverOpts []config.Option
	serverOpts = append(serverOpts,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		// multipart 头部需要额外空间，上限略高于文件上限，真正的大小校验在 handler 中
		server.WithMaxRequestBodySize(int(cfg.Upload.MaxSizeBytes)+1024*1024),
	)

	var tracerCfg *hertztracing.Config
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint != "" {
		name := cfg.Tracing.ServiceName
		if name == "" {
			name = serviceName
		}
		shutdown, err := tracing.InitProvider(ctx, tracing.ProviderConfig{
			ServiceName: name,
			Endpoint:    cfg.Tracing.Endpoint,
			Insecure:    cfg.Tracing.Insecure,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("初始化链路追踪失败，继续运行")
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(sctx); err != nil {
					logger.Warn().Err(err).Msg("关闭链路追踪失败")
				}
			}()
			var tracerOpt config.Option
			tracerOpt, tracerCfg = hertztracing.NewServerTracer()
			serverOpts = append(serverOpts, tracerOpt)
			logger.Info().Str("endpoint", cfg.Tracing.Endpoint).Msg("链路追踪已启用")
		}
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("初始化存储失败: %w", err)
	}
	defer storageManager.Close()

	sessionStore := newSessionStore(cfg, storageManager)
	extractor := newExtractor(cfg)

	var profileRepo profile.Repository = profile.NewMemoryRepository()
	if storageManager.MySQL != nil {
		profileRepo = storageManager.MySQL
	} else {
		logger.Warn().Msg("MySQL 不可用，用户资料仅保存在内存中")
	}

	var uploadOpts []handler.UploadOption
	if storageManager.Objects != nil {
		uploadOpts = append(uploadOpts, handler.WithObjectStore(storageManager.Objects))
	}
	if storageManager.MySQL != nil {
		uploadOpts = append(uploadOpts, handler.WithUploadRecorder(storageManager.MySQL, handler.EventTarget{
			Exchange:   cfg.RabbitMQ.ResumeEventsExchange,
			RoutingKey: cfg.RabbitMQ.UploadedRoutingKey,
		}))
	}

	hs := router.Handlers{
		Upload:   handler.NewUploadHandler(cfg.Upload.Dir, extractor, extraction.NewSessions(), sessionStore, uploadOpts...),
		Analysis: handler.NewAnalysisHandler(sessionStore),
		Profile:  handler.NewProfileHandler(profile.NewService(profileRepo)),
		Files:    handler.NewFilesHandler(cfg.Upload.Dir, storageManager.Objects),
	}
	if cfg.Upload.RateLimitPerMinute > 0 {
		hs.UploadGuard = middleware.RateLimit(ratelimit.NewTokenBucket(cfg.Upload.RateLimitPerMinute, cfg.Upload.RateLimitBurst))
	}
	if cfg.Auth.JWTSecret != "" {
		hs.Auth = middleware.BearerAuth(middleware.NewTokenVerifier(cfg.Auth.JWTSecret))
	} else {
		logger.Warn().Msg("未配置 JWT 密钥，资料接口不做鉴权")
	}

	h := server.New(serverOpts...)
	if tracerCfg != nil {
		h.Use(hertztracing.ServerMiddleware(tracerCfg))
	}
	h.Use(middleware.AccessLog())
	router.RegisterRoutes(h, hs)
	glog.Info("HTTP路由注册成功")

	g, gctx := errgroup.WithContext(ctx)

	if storageManager.MySQL != nil && storageManager.RabbitMQ != nil {
		relay := outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ,
			outbox.WithPollingInterval(appconfig.GetDuration(cfg.RabbitMQ.RetryInterval, 5*time.Second)))
		g.Go(func() error {
			return relay.Run(gctx)
		})
		logger.Info().Msg("消息中继服务已启动")
	}

	g.Go(func() error {
		glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
		if err := h.Run(); err != nil {
			return fmt.Errorf("启动HTTP服务器失败: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("接收到终止信号，正在优雅退出...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			appconfig.GetDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
		defer cancel()
		return h.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newSessionStore(cfg *appconfig.Config, s *storage.Storage) resume.SessionStore {
	if s.Redis != nil {
		ttl := appconfig.GetDuration(cfg.Session.TTL, constants.DefaultSessionTTL)
		logger.Info().Dur("ttl", ttl).Msg("会话数据保存在 Redis")
		return storage.NewRedisSessionStore(s.Redis.Client, ttl)
	}
	if cfg.Session.Backend == "redis" {
		logger.Warn().Msg("Redis 不可用，会话数据退回内存存储")
	}
	return resume.NewMemoryStore()
}

func newExtractor(cfg *appconfig.Config) extraction.Extractor {
	if cfg.Extractor.Mode == appconfig.ExtractorModeCommand {
		logger.Info().Str("command", cfg.Extractor.Command).Strs("args", cfg.Extractor.Args).Msg("使用外部解析引擎")
		return extraction.NewCommandGateway(cfg.Extractor.Command,
			extraction.WithArgs(cfg.Extractor.Args...),
			extraction.WithTimeout(appconfig.GetDuration(cfg.Extractor.Timeout, 60*time.Second)),
			extraction.WithStrictStderr(cfg.Extractor.StrictStderr),
		)
	}
	engine := parser.NewEngine()
	if cfg.Extractor.TikaURL != "" {
		tika, err := parser.NewTikaClient(cfg.Extractor.TikaURL,
			parser.WithTikaTimeout(appconfig.GetDuration(cfg.Extractor.Timeout, 60*time.Second)))
		if err != nil {
			logger.Warn().Err(err).Msg("Tika 客户端不可用，.doc 文件将无法解析")
		} else {
			engine.Fallback = tika
		}
	}
	logger.Info().Bool("tika", engine.Fallback != nil).Msg("使用内置规则解析引擎")
	return extraction.NewBuiltinExtractor(engine)
}
