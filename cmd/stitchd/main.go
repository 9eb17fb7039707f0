package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stitch/internal/config"
	"stitch/internal/db"
	"stitch/internal/handler"
	stitchhttp "stitch/internal/http"
	"stitch/internal/repository"
	"stitch/internal/scheduler"
	"stitch/internal/service"
	"stitch/pkg/logger"
	"stitch/pkg/network"
	"stitch/pkg/snowflake"
)

func main() {
	// .env is optional; real config comes from the environment
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	if err := snowflake.Init(0); err != nil {
		logger.Error("snowflake init failed", "error", err)
		os.Exit(1)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("database open failed", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer database.Close()

	cache := repository.NewFragmentCacheRepository(database)
	clientFactory := network.NewClientFactory(cfg.ProxyURL)

	fragmentService := service.NewFragmentService(cfg, cache, clientFactory)
	menuService := service.NewMenuService()
	pageService := service.NewPageService(cfg.PagesDir, fragmentService, menuService)
	authService, err := service.NewAuthService(cfg.AdminPassword, cfg.JWTSecret)
	if err != nil {
		logger.Error("auth setup failed", "error", err)
		os.Exit(1)
	}
	if !authService.Enabled() {
		logger.Warn("admin password not set, admin endpoints disabled")
	}

	e := stitchhttp.NewRouter(
		handler.NewPageHandler(pageService),
		handler.NewFragmentHandler(fragmentService, cache),
		handler.NewMenuHandler(fragmentService, menuService),
		handler.NewAuthHandler(authService),
		authService,
		cfg.SiteDir,
	)

	sched := scheduler.New(fragmentService, cfg.RefreshInterval)
	sched.Start()

	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
