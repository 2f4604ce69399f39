package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	domainauth "abonado-server-go/internal/domain/auth"
	authstore "abonado-server-go/internal/domain/auth/store"
	subscriberservice "abonado-server-go/internal/domain/subscriber/service"
	platformconfig "abonado-server-go/internal/platform/config"
	platformerrors "abonado-server-go/internal/platform/errors"
	platformlogging "abonado-server-go/internal/platform/logging"
	platformstorage "abonado-server-go/internal/platform/storage"
	httptransport "abonado-server-go/internal/transport/http"
	httpwebapi "abonado-server-go/internal/transport/http/webapi"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config      *platformconfig.Config
	configPath  string
	logger      *platformlogging.Logger
	db          *gorm.DB
	authManager *domainauth.Manager
	subscribers *subscriberservice.SubscriberService
}

// Run 启动整个服务生命周期，负责加载配置、初始化依赖和优雅关停。
func Run(ctx context.Context) error {
	state := &appState{}

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}

	authManager := state.authManager
	if authManager == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"auth manager not initialised",
		)
	}

	defer func() {
		if closeErr := authManager.Close(); closeErr != nil {
			logger.ErrorTag("认证", "认证管理器未正常关闭: %v", closeErr)
		}
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return fmt.Errorf("启动 Http 服务失败: %w", err)
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.InfoTag("引导", "服务已退出")
	logger.Close()
	return nil
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph 定义初始化步骤及其依赖顺序
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:init-database",
			Title:     "Initialise database",
			DependsOn: []string{"config:load", "logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDatabaseStep,
		},
		{
			ID:        "storage:init-event-recorder",
			Title:     "Initialise event recorder",
			DependsOn: []string{"storage:init-database"},
			Kind:      platformerrors.KindStorage,
			Execute:   initEventRecorderStep,
		},
		{
			ID:        "auth:init-manager",
			Title:     "Initialise auth manager",
			DependsOn: []string{"storage:init-database"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initAuthStep,
		},
		{
			ID:        "subscribers:init-service",
			Title:     "Initialise subscriber service",
			DependsOn: []string{"storage:init-database"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initSubscriberServiceStep,
		},
		{
			ID:        "subscribers:seed",
			Title:     "Seed subscribers from CSV",
			DependsOn: []string{"subscribers:init-service"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   seedSubscribersStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().Load()
	if err != nil {
		return err
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}
	state.logger = logger

	source := state.configPath
	if source == "" {
		source = "defaults"
	}
	logger.InfoTag("引导", "日志模块就绪 [%s] %s", state.config.Log.Level, source)
	return nil
}

func initDatabaseStep(_ context.Context, state *appState) error {
	db, err := platformstorage.InitDatabase(state.config, state.logger)
	if err != nil {
		return err
	}
	state.db = db

	return platformstorage.InitAdminUser(db, state.logger)
}

func initEventRecorderStep(_ context.Context, state *appState) error {
	recorder := platformstorage.NewEventRecorder(state.db, state.logger)
	if err := recorder.Start(); err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init-event-recorder", "failed to subscribe event recorder", err)
	}
	return nil
}

func initAuthStep(_ context.Context, state *appState) error {
	if state == nil || state.config == nil || state.logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"auth:init-manager",
			"missing config/logger",
		)
	}

	authManager, err := initAuthManager(state.config, state.logger, state.db)
	if err != nil {
		return err
	}
	state.authManager = authManager
	return nil
}

func initSubscriberServiceStep(_ context.Context, state *appState) error {
	repo := platformstorage.NewSubscriberRepository(state.db)
	state.subscribers = subscriberservice.NewSubscriberService(repo)
	return nil
}

func seedSubscribersStep(ctx context.Context, state *appState) error {
	path := state.config.Seed.SubscribersFile
	if path == "" {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		state.logger.InfoTag("引导", "未找到导入文件 %s，跳过", path)
		return nil
	}
	defer file.Close()

	created, err := state.subscribers.SeedFromCSV(ctx, file)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "subscribers:seed", "failed to seed subscribers", err)
	}
	state.logger.InfoTag("引导", "从 %s 导入 %d 条用户记录", path, created)
	return nil
}

func initAuthManager(
	config *platformconfig.Config,
	logger *platformlogging.Logger,
	db *gorm.DB,
) (*domainauth.Manager, error) {
	storeType := strings.ToLower(strings.TrimSpace(config.Auth.Store.Type))
	storeCfg := authstore.Config{
		Driver: storeType,
		TTL:    config.Auth.Store.Expiry,
	}

	if storeCfg.Driver == "" || storeCfg.Driver == "database" {
		storeCfg.Driver = authstore.DriverSQLite
	}

	switch storeCfg.Driver {
	case authstore.DriverMemory:
		cleanup := config.Auth.Store.Memory.Cleanup
		if cleanup <= 0 {
			cleanup = 10 * time.Minute
		}
		storeCfg.Memory = &authstore.MemoryConfig{GCInterval: cleanup}
	case authstore.DriverSQLite:
		// 会话表与业务数据共用一个库
	case authstore.DriverRedis:
		storeCfg.Redis = &authstore.RedisConfig{
			Addr:     config.Auth.Store.Redis.Addr,
			Username: config.Auth.Store.Redis.Username,
			Password: config.Auth.Store.Redis.Password,
			DB:       config.Auth.Store.Redis.DB,
			Prefix:   config.Auth.Store.Redis.Prefix,
		}
		if storeCfg.Redis.Addr == "" {
			return nil, platformerrors.New(
				platformerrors.KindBootstrap,
				"auth:init-manager",
				"redis store addr is required",
			)
		}
	default:
		logger.InfoTag("认证", "不支持的存储类型 %s，已自动回退至内存模式", storeType)
		storeCfg.Driver = authstore.DriverMemory
		storeCfg.Memory = &authstore.MemoryConfig{GCInterval: 10 * time.Minute}
	}

	authStore, err := authstore.New(storeCfg, authstore.Dependencies{SQLiteDB: db})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindBootstrap, "auth:init-manager", "failed to create auth store", err)
	}

	secret := config.Server.JWTSecret
	if secret == "" {
		secret = "abonado-dev-secret"
		logger.InfoTag("认证", "未配置JWT_SECRET，使用开发默认值")
	}

	authManager, err := domainauth.NewManager(domainauth.Options{
		Store:      authStore,
		Users:      platformstorage.NewUserRepository(db),
		Logger:     logger,
		JWTSecret:  secret,
		SessionTTL: storeCfg.TTL,
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindBootstrap, "auth:init-manager", "failed to create auth manager", err)
	}
	return authManager, nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	config := state.config
	logger := state.logger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config:         config,
		Logger:         logger,
		AuthMiddleware: httpwebapi.AuthMiddleware(state.authManager, logger),
		StaticRoot:     config.Web.StaticDir,
	})
	if err != nil {
		return nil, err
	}
	router := httpRouter.Engine

	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api") {
			c.JSON(http.StatusNotFound, httptransport.APIResponse{
				Success: false,
				Data:    gin.H{},
				Message: "api Not found",
				Code:    http.StatusNotFound,
			})
			return
		}

		c.File(config.Web.StaticDir + "/index.html")
	})

	webapiService, err := httpwebapi.NewService(config, logger, state.subscribers, state.authManager)
	if err != nil {
		logger.ErrorTag("HTTP", "WebAPI 服务初始化失败: %v", err)
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "webapi:new-service", "failed to create webapi service", err)
	}
	if err := webapiService.Register(groupCtx, httpRouter.API, httpRouter.Secured); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "webapi:register", "failed to register webapi routes", err)
	}

	httpServer := &http.Server{
		Addr:    config.Server.IP + ":" + strconv.Itoa(config.Server.Port),
		Handler: router,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "Gin 服务已启动，访问地址 http://localhost:%d", config.Server.Port)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "HTTP 服务关闭失败: %v", err)
			} else {
				logger.InfoTag("HTTP", "HTTP 服务已优雅关闭")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "HTTP 服务启动失败: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("引导", "收到系统信号 %v，正在进行资源清理", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("引导", "服务关闭过程中出现错误: %v", err)
			return err
		}
		logger.InfoTag("引导", "所有服务已成功关闭")
	case <-time.After(15 * time.Second):
		timeoutErr := errors.New("服务关闭超时")
		logger.ErrorTag("引导", "服务关闭超时，已强制退出")
		return timeoutErr
	}
	return nil
}
