package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/habitlog/internal/cache"
	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/handler"
	"github.com/habitlog/internal/logging"
	"github.com/habitlog/internal/metrics"
	"github.com/habitlog/internal/router"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logging.Init(cfg.LogPath)
	defer logging.Sync()

	metrics.Register()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 引导管理账号，未配置时跳过
	if cfg.SuperRootUserName != "" && cfg.SuperRootPassword != "" {
		if err := db.EnsureUser(cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
			log.Fatalf("failed to ensure root user: %v", err)
		}
	}

	// Redis 缓存可选，连接失败时降级为直读数据库
	if err := cache.Init(cfg.RedisAddr, logging.Logger); err != nil {
		logging.Logger.Warn("cache_unavailable", zap.Error(err))
	}
	defer cache.Close()

	api := handler.NewAPI(db.DB, handler.Options{
		FirstWeekday: cfg.FirstWeekday,
		UploadDir:    cfg.UploadDir,
		UploadURL:    cfg.UploadURLPath,
	})

	r := router.SetupRouter(api, cfg)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	go func() {
		logging.Logger.Info("server_starting", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatal("server_failed", zap.Error(err))
		}
	}()

	// 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger.Info("shutting_down_server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Fatal("server_forced_shutdown", zap.Error(err))
	}

	logging.Logger.Info("server_stopped")
}
