// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iyunix/go-medrag/internal/app"
	"github.com/iyunix/go-medrag/internal/config"
	"github.com/iyunix/go-medrag/internal/handlers"
	"github.com/iyunix/go-medrag/internal/middleware"
	"github.com/iyunix/go-medrag/internal/services"
)

func main() {
	cfg := config.Load()
	logger := services.NewLogger("medrag")

	application, err := app.InitializeApplication(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	docHandler, err := application.NewDocumentHandler()
	if err != nil {
		logger.Error("failed to initialize document handler", "error", err)
		os.Exit(1)
	}

	uploadLimiter := middleware.NewRateLimiter(cfg.UploadRatePerMinute, cfg.UploadRatePerMinute)
	router := handlers.NewRouter(docHandler, handlers.RouterOptions{
		JWTSecret:     cfg.JWTSecretKey,
		UploadLimiter: uploadLimiter,
		Logger:        logger,
	})
	if cfg.JWTSecretKey == "" {
		logger.Warn("JWT_SECRET_KEY not set; API is unauthenticated")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := uploadLimiter.Cleanup(30 * time.Minute); n > 0 {
					logger.Debug("rate limiter cleanup", "removed", n)
				}
			}
		}
	}()

	go func() {
		logger.Info("server starting", "addr", srv.Addr, "vector_backend", cfg.VectorBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server startup failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		return
	}
	logger.Info("server stopped gracefully")
}
