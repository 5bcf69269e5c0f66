// cmd/planner/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diet-planner/config"
	"diet-planner/internal/bot"
	"diet-planner/internal/catalog"
	"diet-planner/internal/db"
	"diet-planner/internal/gpt"
	"diet-planner/internal/planner"
	"diet-planner/internal/server"
	"diet-planner/internal/session"
	"diet-planner/pkg/logger"
)

func connectPostgres(cfg config.DBConfig, l *logger.Logger) (*db.PostgresDB, error) {
	var (
		database *db.PostgresDB
		err      error
	)
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		database, err = db.NewPostgresDB(cfg)
		if err == nil {
			return database, nil
		}
		l.Error("Failed to connect to database, retrying...", "error", err, "attempt", i+1)
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	return nil, err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New().Fatal("Failed to load config", "error", err)
	}

	l := logger.ForMode(cfg.Log.Mode)
	defer l.Sync()
	l.Info("Starting diet planner...")

	// Food catalog
	var store catalog.Store
	switch cfg.Catalog.Backend {
	case "postgrest":
		rest, err := catalog.NewPostgRESTStore(cfg.Catalog.URL, cfg.Catalog.APIKey, cfg.Catalog.Timeout)
		if err != nil {
			l.Fatal("Failed to configure catalog", "error", err)
		}
		store = rest
	case "postgres":
		database, err := connectPostgres(cfg.DB, l)
		if err != nil {
			l.Fatal("Failed to connect to database after multiple attempts", "error", err)
		}
		defer database.Close()

		schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = database.EnsureSchema(schemaCtx)
		cancel()
		if err != nil {
			l.Fatal("Failed to prepare database schema", "error", err)
		}
		store = database
	default:
		l.Fatal("Unknown catalog backend", "backend", cfg.Catalog.Backend)
	}
	foods := catalog.NewAccessor(store, l)

	p := planner.NewPlanner(foods, planner.Options{
		DefaultMealBudget: cfg.Planner.DefaultMealBudget,
		Seed:              uint64(cfg.Planner.Seed),
	}, l)

	// Plan state storage
	var sessions session.Store = session.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		redisStore, err := session.NewRedisStore(cfg.Redis)
		if err != nil {
			l.Fatal("Failed to connect to Redis", "error", err)
		}
		defer redisStore.Close()
		sessions = redisStore
		l.Info("Storing plan state in Redis", "addr", cfg.Redis.Addr)
	}
	tracker := session.NewTracker(p, sessions, l)

	// Telegram front end is optional
	var telegramBot *bot.TelegramBot
	if cfg.Telegram.Token != "" {
		var tips bot.TipsGenerator
		if cfg.GPT.APIKey != "" {
			tips = gpt.NewClient(cfg.GPT.APIKey).WithModel(cfg.GPT.Model)
		}

		telegramBot, err = bot.NewTelegramBot(cfg.Telegram.Token, tracker, tips, l)
		if err != nil {
			l.Fatal("Failed to create Telegram bot", "error", err)
		}
		if err := telegramBot.Start(context.Background()); err != nil {
			l.Fatal("Failed to start Telegram bot", "error", err)
		}
		l.Info("Telegram bot started successfully")
	}

	httpServer := server.NewServer(cfg.Server.Port, tracker, foods, l)
	go func() {
		l.Info("Starting HTTP server...", "port", cfg.Server.Port)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("Failed to start HTTP server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		l.Error("Error during HTTP server shutdown", "error", err)
	}
	if telegramBot != nil {
		if err := telegramBot.Stop(ctx); err != nil {
			l.Error("Error during bot shutdown", "error", err)
		}
	}

	l.Info("Stopped successfully")
}
