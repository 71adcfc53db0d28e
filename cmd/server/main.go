package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budgetledger/internal/config"
	"budgetledger/internal/handler"
	"budgetledger/internal/infrastructure/cache"
	"budgetledger/internal/infrastructure/database"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "config file (default ./config/config.yaml)")
	flag.Parse()

	// .env 不存在时忽略
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Log.NewLogger(os.Stdout))

	// 初始化数据库
	db, err := database.Init(&cfg.Database)
	if err != nil {
		slog.Error("init database", "driver", cfg.Database.Driver, "err", err)
		os.Exit(1)
	}

	// 初始化 Redis，未启用时为 nil
	redisClient, err := cache.InitRedis(&cfg.Redis)
	if err != nil {
		slog.Error("init redis", "err", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// 设置路由
	router := handler.SetupRouter(db, redisClient, cfg)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 在 goroutine 中启动服务器
	go func() {
		slog.Info("server listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")

	// 关闭 HTTP 服务（等待最多5秒）
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "err", err)
	}

	slog.Info("server stopped")
}
