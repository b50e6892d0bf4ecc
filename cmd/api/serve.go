package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contact-mail-proxy/config"
	"contact-mail-proxy/pkg/logger"
	"contact-mail-proxy/pkg/security"

	"github.com/gin-gonic/gin"
)

func runServer(parent context.Context) error {
	// 1. Load Config; nothing binds a port when this fails
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return err
	}

	// 2. Setup Loggers
	logger.Init(cfg.Environment)
	defer logger.Sync()
	sl := security.InitSecurityLogger("contact-mail-proxy", cfg.Environment)
	defer func() { _ = sl.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Log.Infow("Starting contact mail proxy", "port", cfg.Port, "transport", cfg.MailTransport)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Setup transport, stores, usecases and router
	a, err := newApp(ctx, cfg)
	if err != nil {
		logger.Log.Errorw("Failed to initialize", "error", err)
		return err
	}
	defer a.close()
	a.start(ctx)

	// 4. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Log.Errorw("Listen failed", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	// Graceful Shutdown
	logger.Log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
	return nil
}
