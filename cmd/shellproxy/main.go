package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dmitrijs2005/otpvault/internal/logging"
	"github.com/dmitrijs2005/otpvault/internal/shellcache"
	"github.com/dmitrijs2005/otpvault/internal/shellcache/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	zl, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer zl.Sync()
	sugar := zl.Sugar()
	logger := logging.NewZapLogger(sugar)

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return err
		}
		cacheDir = filepath.Join(base, "otpvault", "shell")
	}

	store, err := shellcache.NewStore(cacheDir, cfg.Generation, cfg.LRUSize)
	if err != nil {
		return err
	}
	policy, err := shellcache.NewPolicy(store, cfg.OriginURL, nil, logger)
	if err != nil {
		return err
	}

	if err := policy.Install(ctx, cfg.Generation); err != nil {
		sugar.Warnw("install incomplete, serving without a seeded shell", "error", err)
	}
	if err := policy.Activate(ctx, cfg.Generation); err != nil {
		return err
	}

	srv := shellcache.NewServer(cfg.ListenAddr, shellcache.NewRouter(policy, sugar))

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("shell cache worker listening", "addr", cfg.ListenAddr, "generation", cfg.Generation)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
