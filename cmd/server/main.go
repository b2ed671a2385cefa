// Package main is the entry point for the Pokédex API server.
//
// MAIN PACKAGE IN GO:
// main() keeps to three jobs:
// 1. Read configuration (environment, .env files)
// 2. Create dependencies (logger, datastore)
// 3. Start the application
//
// Everything else lives in internal/server and the packages it wires.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/pokedex/internal/config"
	"github.com/sakif/pokedex/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// LOG_LEVEL picks the minimum level: debug, info, warn or error.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// === 3. OPEN THE DATASTORE ===
	// Migrations run here, so a fresh database is ready before the first request.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := server.OpenStore(ctx, cfg.Database.Driver, cfg.Database.DSN())
	cancel()
	if err != nil {
		logger.Error("failed to open database",
			slog.String("driver", cfg.Database.Driver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(server.Config{
		Port:               cfg.Port,
		AssetRoot:          cfg.AssetRoot,
		JWTSecret:          cfg.Auth.JWTSecret,
		SecureCookies:      cfg.Auth.SecureCookies,
		GoogleClientID:     cfg.Google.ClientID,
		GoogleClientSecret: cfg.Google.ClientSecret,
		GoogleCallbackURL:  cfg.Google.CallbackURL,
		PokeAPIBaseURL:     cfg.PokeAPI.BaseURL,
		PokeAPILang:        cfg.PokeAPI.Lang,
		RateLimitRPS:       cfg.RateLimit.RPS,
		RateLimitBurst:     cfg.RateLimit.Burst,
	}, store, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
