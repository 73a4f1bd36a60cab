// Package main Curately API
// Personalized news backend: fetches raw articles, enriches them with
// AI summaries and relevance scores, and serves ranked feeds per user.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/curately/curately/internal/ai"
	"github.com/curately/curately/internal/cache"
	"github.com/curately/curately/internal/enrich"
	"github.com/curately/curately/internal/feed"
	"github.com/curately/curately/internal/heuristic"
	"github.com/curately/curately/internal/news"
	"github.com/curately/curately/internal/ratelimit"
	"github.com/curately/curately/internal/router"
	"github.com/curately/curately/internal/server"
	"github.com/curately/curately/internal/store"
	"github.com/labstack/echo/v4"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	userStore, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer userStore.Close()

	var groqOpts []ai.GroqOption
	if cfg.GroqModel != "" {
		groqOpts = append(groqOpts, ai.WithModel(cfg.GroqModel))
	}
	completer := ai.NewGroqClient(cfg.GroqAPIKey, groqOpts...)

	enrichOpts, err := enrichOptions(cfg)
	if err != nil {
		slog.Error("Failed to load category rules", "error", err)
		os.Exit(1)
	}

	tracker := ratelimit.NewTracker()
	enricher := enrich.NewClient(completer, tracker, enrichOpts...)
	feedCache := cache.New()
	newsClient := news.NewClient(cfg.NewsAPIKey)

	feedSvc := feed.NewService(userStore, newsClient, enricher, feedCache, tracker)

	e := echo.New()
	e.HideBanner = true
	s := server.NewServer(e, &server.Config{
		Port:        cfg.Port,
		CorsOrigins: cfg.CorsOrigins,
	})

	r := router.New(e, feedSvc, userStore, enricher, feedCache)
	r.Bind()

	slog.Info("Starting API", "port", cfg.Port)
	if err := s.Start(); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}

func enrichOptions(cfg *Config) ([]enrich.Option, error) {
	if cfg.CategoryRulesPath == "" {
		return nil, nil
	}

	f, err := os.Open(cfg.CategoryRulesPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rules, err := heuristic.LoadCategoryRules(f)
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded category rules", "path", cfg.CategoryRulesPath, "rules", len(rules))
	return []enrich.Option{enrich.WithCategoryRules(rules)}, nil
}
