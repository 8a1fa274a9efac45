package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vetted-notifier/internal/bootstrap"
	"github.com/noah-isme/vetted-notifier/internal/config"
	"github.com/noah-isme/vetted-notifier/internal/handler"
	"github.com/noah-isme/vetted-notifier/internal/middleware"
	"github.com/noah-isme/vetted-notifier/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("jwt secret must be provided to serve the http api")
	}

	logger := bootstrap.NewLogger(cfg.LogLevel, os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	deps, err := bootstrap.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise services")
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to release connections")
		}
	}()

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ServerHeader:          cfg.AppName,
		DisableStartupMessage: cfg.AppEnv == "production",
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          2 * time.Minute,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		NotificationHandler: handler.NewNotificationHandler(deps.Notify, middleware.RateLimit("notify", cfg.RateLimitMax, time.Minute), logger),
		IntegrityHandler:    handler.NewIntegrityHandler(deps.Integrity, logger),
		HealthProbes:        deps.HealthProbes(),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
