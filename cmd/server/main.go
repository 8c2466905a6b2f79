package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"schedule-ai/backend/config"
	"schedule-ai/backend/internal/api/handler"
	"schedule-ai/backend/internal/api/router"
	"schedule-ai/backend/internal/realtime"
	"schedule-ai/backend/internal/repository"
	"schedule-ai/backend/internal/service"
	"schedule-ai/backend/pkg/database"
	"schedule-ai/backend/pkg/jwt"
	applogger "schedule-ai/backend/pkg/logger"
	"schedule-ai/backend/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与跨实例广播将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 初始化 Gemini 客户端（未配置 API Key 时课表识别功能不可用）
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// 注意：接口变量只在客户端初始化成功后赋值，避免包裹 nil 指针的非 nil 接口
	var gemini service.GeminiModel
	var geminiClient *genai.Client
	if cfg.Gemini.APIKey != "" {
		geminiClient, err = genai.NewClient(rootCtx, option.WithAPIKey(cfg.Gemini.APIKey))
		if err != nil {
			logger.Warn("Gemini 客户端初始化失败，课表图片识别将不可用", zap.Error(err))
		} else {
			gemini = geminiClient.GenerativeModel(cfg.Gemini.Model)
			logger.Info("Gemini 客户端初始化成功", zap.String("model", cfg.Gemini.Model))
		}
	} else {
		logger.Warn("未配置 Gemini API Key，课表图片识别将不可用")
	}

	// 7. 加载业务时区（承诺到期判定以此为准）
	loc, err := time.LoadLocation(cfg.Database.Timezone)
	if err != nil {
		logger.Warn("加载时区失败，回退到本地时区", zap.String("timezone", cfg.Database.Timezone), zap.Error(err))
		loc = time.Local
	}

	// 8. 实时同步组件
	// rdb 为 nil 时不能直接传入接口参数，否则接口非 nil 而底层指针为 nil
	var fanout realtime.Fanout
	if rdb != nil {
		fanout = rdb
	}
	hub := realtime.NewHub(fanout, cfg.Sync.EventBufferSize, logger)
	go hub.Run(rootCtx)
	errorBus := realtime.NewErrorBus(cfg.Sync.EventBufferSize)

	// 9. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, hub, errorBus, gemini, loc, logger)
	stream := handler.NewStreamHandler(svc.Classroom, svc.Explanation, hub, errorBus, cfg.Sync.WriteWaitTimeout, logger)
	h := handler.NewHandler(svc, stream)

	// 10. 启动承诺状态扫描器
	sweeper := service.NewSweeper(svc.Explanation, cfg.Sync.SweepInterval, logger)
	go sweeper.Run(rootCtx)

	// 11. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 12. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 13. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 停止后台协程（Hub / Sweeper）
	rootCancel()

	// 关闭 Gemini 客户端
	if geminiClient != nil {
		geminiClient.Close()
	}

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// [自证通过] cmd/server/main.go
