package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/curately/curately/pkg/config/env"
	"github.com/curately/curately/pkg/utils"
)

type Config struct {
	Port        string
	CorsOrigins []string

	DatabaseURL string

	GroqAPIKey string
	GroqModel  string

	NewsAPIKey string

	// CategoryRulesPath optionally points at a YAML file overriding the
	// built-in fallback category keyword tables.
	CategoryRulesPath string
}

func LoadConfig() (*Config, error) {
	if err := env.LoadDotEnv("cmd/api/.env"); err != nil {
		slog.Info("Skipping .env ...", "error", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := validatePort(port); err != nil {
		return nil, fmt.Errorf("invalid port: %w", err)
	}

	var origins []string
	corsOriginsEnv := os.Getenv("CORS_ORIGINS")
	if corsOriginsEnv != "" {
		origins = strings.Split(corsOriginsEnv, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		origins = utils.RemoveEmptyStrings(origins)
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	cfg := &Config{
		Port:              port,
		CorsOrigins:       origins,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		GroqModel:         os.Getenv("GROQ_MODEL"),
		NewsAPIKey:        os.Getenv("NEWS_API_KEY"),
		CategoryRulesPath: os.Getenv("CATEGORY_RULES_PATH"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.GroqAPIKey == "" {
		return nil, errors.New("GROQ_API_KEY is required")
	}
	if cfg.NewsAPIKey == "" {
		return nil, errors.New("NEWS_API_KEY is required")
	}

	return cfg, nil
}

func validatePort(port string) error {
	portNum, err := strconv.Atoi(port)

	if err != nil {
		return errors.New("port must be a number")
	}

	if portNum < 1 || portNum > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	return nil
}
