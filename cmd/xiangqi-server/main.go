package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/park285/cheese-xiangqi/internal/config"
	"github.com/park285/cheese-xiangqi/internal/obslog"
	"github.com/park285/cheese-xiangqi/internal/xqbuilder"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = obslog.Sync() }()
	logger := obslog.L()

	deps, err := xqbuilder.New(cfg, logger)
	if err != nil {
		logger.Fatal("init_failed", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- deps.Server.Listen(cfg.HTTPAddr) }()

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("http_serve_failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := deps.Server.Shutdown(ctx); err != nil {
		logger.Warn("http_shutdown", zap.Error(err))
	}
	if err := deps.Close(); err != nil {
		logger.Warn("deps_close", zap.Error(err))
	}
}
