package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/shortlyhq/shortly/internal/auth"
	"github.com/shortlyhq/shortly/internal/cache"
	"github.com/shortlyhq/shortly/internal/config"
	"github.com/shortlyhq/shortly/internal/httpapi"
	applog "github.com/shortlyhq/shortly/internal/logger"
	"github.com/shortlyhq/shortly/internal/queue"
	"github.com/shortlyhq/shortly/internal/resolver"
	"github.com/shortlyhq/shortly/internal/shortener"
	"github.com/shortlyhq/shortly/internal/store"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Warn(".env file not found, relying on env vars", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	applog.Init(applog.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.Log.Service,
		Env:     cfg.Log.Env,
		Output:  cfg.Log.Output,
	})

	ctx := context.Background()

	db, err := store.New(cfg.Database.URL, cfg.Database.GormLogLevel)
	if err != nil {
		slog.Error("Unable to connect to database", "err", err)
		os.Exit(1)
	}
	slog.Info("Running GORM auto-migration...")
	if err := db.Migrate(); err != nil {
		slog.Error("Failed to auto-migrate database", "err", err)
		os.Exit(1)
	}

	ca := cache.New(cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.Redis.Timeout,
	})
	// A cold Redis only costs the fast path; the store keeps serving.
	if err := ca.Ping(ctx); err != nil {
		slog.Warn("Redis unreachable at startup, cache degraded", "err", err)
	}

	var publisher resolver.ClickPublisher
	if q, err := queue.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.ClickQueue); err != nil {
		slog.Warn("RabbitMQ unreachable, click events fall back to the cache buffer", "err", err)
	} else {
		defer q.Close()
		publisher = q
	}

	authSvc := auth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	links := shortener.New(db, ca, cfg.Server.URLExpiryDays)
	res := resolver.New(ca, db, publisher)

	app := httpapi.NewApp(httpapi.Deps{
		Auth:      authSvc,
		Cache:     ca,
		Store:     db,
		Links:     links,
		Resolver:  res,
		BaseURL:   cfg.Server.BaseURL,
		RateLimit: cfg.RateLimit,
	})

	slog.Info("Starting API service", "port", cfg.Server.Port)
	if err := app.Listen(cfg.Server.Port); err != nil {
		slog.Error("API service failed", "err", err)
		os.Exit(1)
	}
}
