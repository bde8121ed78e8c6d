// Command server is the entry point for the Inkwell HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/observability"
	"inkwell/internal/server"

	"go.uber.org/zap"
)

const version = "1.0.0"

// @title Inkwell API
// @version 1.0
// @description Posts, groups, comments and author subscriptions.

// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity provider's token.

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		middleware.Logger.Fatal("failed to load configuration", zap.Error(err))
	}
	middleware.SetLogger(middleware.NewLogger(cfg.Env, cfg.LogLevel))
	log := middleware.Logger
	defer func() { _ = log.Sync() }()

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "inkwell",
		ServiceVersion: version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	flushSentry, err := observability.InitSentry(observability.SentryConfig{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Env,
		Release:     "inkwell@" + version,
	})
	if err != nil {
		log.Fatal("failed to initialize sentry", zap.Error(err))
	}
	defer flushSentry()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.ApplySchema(context.Background(), db, cfg); err != nil {
		log.Fatal("failed to apply schema", zap.Error(err))
	}

	// Redis is optional; without it the page cache is disabled and rate
	// limits are kept per process.
	redisClient := cache.InitRedis(cfg.RedisURL)

	srv, err := server.NewServerWithDeps(cfg, db, redisClient)
	if err != nil {
		log.Fatal("failed to create server", zap.Error(err))
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Error("tracing shutdown error", zap.Error(err))
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
