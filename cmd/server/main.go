package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/SlpAus/lotto-mirror-backend/api"
	"github.com/SlpAus/lotto-mirror-backend/internal/draw"
	"github.com/SlpAus/lotto-mirror-backend/internal/fill"
	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/config"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/database"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/health"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/shutdown"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/startup"
	"github.com/SlpAus/lotto-mirror-backend/pkg/lifecycle"
	"github.com/SlpAus/lotto-mirror-backend/pkg/token"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

var logPath = flag.String("log", "", "also append logs to this file")

func main() {
	flag.Parse()
	var logFile io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Fatalf("cannot open log file: %v", err)
		}
		defer f.Close()
		logFile = f
	}
	defer logger.Init("lotto-mirror", true, false, logFile).Close()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("配置加载失败: %v", err)
	}

	if cfg.Fill.SessionSecret != "" {
		token.SetSecretKey([]byte(cfg.Fill.SessionSecret))
	} else if err := token.GenerateSecretKey(); err != nil {
		logger.Fatal(err)
	}

	if err := database.InitDB(cfg.Database.Driver, cfg.Database.DSN); err != nil {
		logger.Fatal(err)
	}
	if err := database.InitRedis(cfg.Database.Redis); err != nil {
		logger.Fatal(err)
	}

	// 1. 阻塞式获取初始Run ID
	checker := health.NewChecker(database.RDB)
	if err := checker.InitializeRunID(context.Background()); err != nil {
		logger.Fatal(err)
	}

	// 2. 表结构迁移
	if err := startup.InitializeApplication(database.DB); err != nil {
		logger.Fatalf("应用初始化失败，无法启动: %v", err)
	}

	client := lotteryapi.NewHTTPClient(cfg.LotteryAPI.BaseURL, cfg.LotteryAPI.APIKey, cfg.LotteryAPI.Timeout)
	rules := lottery.Rules{Pick: cfg.Lottery.Pick, Pool: cfg.Lottery.Pool}
	handlers := api.NewHandlers(database.DB, client, fill.NewRedisSessionStore(database.RDB, cfg.Fill.SessionTTL), rules)
	if cfg.Fill.MaxSubmits > 0 {
		handlers.WithSubmitLimiter(fill.NewSubmitLimiter(database.RDB, cfg.Fill.MaxSubmits, cfg.Fill.SubmitWindow))
	}

	// 3. 后台服务
	gracefulMgr := lifecycle.NewManager("graceful")
	forcefulMgr := lifecycle.NewManager("forceful")
	if err := gracefulMgr.Go("draw-sync", func(h *lifecycle.Handle) {
		draw.StartSyncWorker(h, handlers.Draws(), cfg.Sync.DrawInterval)
	}); err != nil {
		logger.Fatal(err)
	}
	if err := forcefulMgr.Go("redis-health", func(h *lifecycle.Handle) {
		health.StartRedisHealthCheck(h, checker, cfg.Sync.RedisCheckInterval)
	}); err != nil {
		logger.Fatal(err)
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Admin-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	api.SetupRoutes(r, handlers, cfg.Server)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}
	go func() {
		logger.Infof("服务器已准备就绪，开始监听 %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	shutdown.NewCoordinator(gracefulMgr, forcefulMgr).ListenForSignalsAndShutdown(server)
}
