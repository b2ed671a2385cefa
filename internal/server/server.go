// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It connects the store, services,
// handlers and middleware, and decides:
//   - Which URL patterns map to which handler functions
//   - What middleware runs on which routes
//   - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go opens the store (OpenStore) and passes it to New.
//	New builds: store → CollectionService → PokemonHandler
//	            store + assets → modelpath.Resolver → PokemonHandler, asset.Builder
//	            PokéAPI client → SpeciesHandler
//	            TokenService + GoogleProvider → AuthService → AuthHandler
//
// All dependencies are assembled here, the composition root, rather than
// scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/pokedex/internal/asset"
	"github.com/sakif/pokedex/internal/auth"
	"github.com/sakif/pokedex/internal/handler"
	"github.com/sakif/pokedex/internal/middleware"
	"github.com/sakif/pokedex/internal/modelpath"
	"github.com/sakif/pokedex/internal/pokeapi"
	"github.com/sakif/pokedex/internal/repository"
	"github.com/sakif/pokedex/internal/repository/postgres"
	sqliteRepo "github.com/sakif/pokedex/internal/repository/sqlite"
	"github.com/sakif/pokedex/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Config holds server configuration.
type Config struct {
	Port int

	// Assets is the tree holding pokemon/{id}/... model files. When nil,
	// AssetRoot is opened with os.DirFS.
	Assets    fs.FS
	AssetRoot string

	JWTSecret          string
	SecureCookies      bool
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	PokeAPIBaseURL string
	PokeAPILang    string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store and the rate limiter's cleanup goroutine.
// Both are released in Close, which Start calls during shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	store  repository.Store
	cancel context.CancelFunc
}

// OpenStore connects to the datastore for driver ("postgres" or "sqlite").
// Both backends apply pending migrations before returning.
func OpenStore(ctx context.Context, driver, dsn string) (repository.Store, error) {
	switch driver {
	case "postgres":
		db, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "sqlite":
		db, err := sqliteRepo.New(dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("server: unknown database driver %q", driver)
	}
}

// New creates a Server around an open store.
func New(cfg Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	if cfg.Assets == nil {
		cfg.Assets = os.DirFS(cfg.AssetRoot)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
		cancel: cancel,
	}

	if err := s.setupRoutes(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler returns the router. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /pokemon/*                     → model files and textures (static)
// GET    /api/pokemon?userId=           → list a collection
// GET    /api/pokemon?id=               → resolve a species' model path
// POST   /api/pokemon                   → save a pokemon
// DELETE /api/pokemon?pokemonId=        → remove a pokemon
// DELETE /api/pokemon/{pokemonId}       → remove a pokemon
// GET    /api/pokemon/{pokemonId}/asset → asset manifest
// GET    /api/species/{id}              → species details from PokéAPI
// GET    /api/db/init, POST /api/db/init → migrate and check the datastore
// GET    /api/me                        → signed-in user
// GET    /auth/google/login, /auth/google/callback; POST /auth/logout
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: unique ID per request (read back by the logger)
// 2. RealIP: client IP from proxy headers (used by the rate limiter)
// 3. Logger: one line per request
// 4. Recoverer: panics become 500s
// 5. CORS: answers preflights before any handler runs
// 6. Rate limiter: per-IP token bucket on the API
func (s *Server) setupRoutes(ctx context.Context) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.CORS)

	s.router.NotFound(handler.NotFound)
	s.router.MethodNotAllowed(handler.MethodNotAllowed)

	// === Static model files ===
	// URL /pokemon/25/x.dae maps to pokemon/25/x.dae inside Assets.
	s.router.Handle("/pokemon/*", http.FileServerFS(s.config.Assets))

	// === Services ===
	scanner := modelpath.NewScanner(s.config.Assets)
	resolver := modelpath.NewResolver(
		modelpath.NewCacheLocator(s.store, scanner),
		modelpath.NewScanLocator(scanner),
		s.logger,
	)
	collection := service.NewCollectionService(s.store, s.logger)

	var opts []pokeapi.Option
	if s.config.PokeAPILang != "" {
		opts = append(opts, pokeapi.WithLanguage(s.config.PokeAPILang))
	}
	species := pokeapi.New(s.config.PokeAPIBaseURL, s.logger, opts...)

	// === Handlers ===
	pokemonHandler := handler.NewPokemonHandler(collection, resolver, s.logger)
	assetHandler := handler.NewAssetHandler(asset.NewBuilder(resolver, scanner, s.logger), s.logger)
	speciesHandler := handler.NewSpeciesHandler(species)
	dbHandler := handler.NewDBHandler(s.store, s.logger)

	// === Auth (optional) ===
	var tokens *auth.TokenService
	var authHandler *handler.AuthHandler
	if s.config.JWTSecret == "" {
		s.logger.Warn("JWT_SECRET not set, authentication is disabled")
	} else {
		var err error
		tokens, err = auth.NewTokenService(s.config.JWTSecret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
		if s.config.GoogleClientID == "" {
			s.logger.Warn("GOOGLE_CLIENT_ID not set, Google login is disabled")
		} else {
			callback := s.config.GoogleCallbackURL
			if callback == "" {
				callback = fmt.Sprintf("http://localhost:%d/auth/google/callback", s.config.Port)
			}
			google := auth.NewGoogleProvider(s.config.GoogleClientID, s.config.GoogleClientSecret, callback)
			authSvc := service.NewAuthService(s.store, tokens, s.logger)
			authHandler = handler.NewAuthHandler(google, authSvc, s.config.SecureCookies, s.logger)
		}
	}

	limiter := middleware.NewRateLimiter(ctx, s.config.RateLimitRPS, s.config.RateLimitBurst)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(limiter.Handler)
		if tokens != nil {
			r.Use(auth.OptionalAuth(tokens))
		}

		r.Get("/pokemon", pokemonHandler.HandleGet)
		r.Post("/pokemon", pokemonHandler.HandleAdd)
		r.Delete("/pokemon", pokemonHandler.HandleRemove)
		r.Delete("/pokemon/{pokemonId}", pokemonHandler.HandleRemoveByPath)
		r.Get("/pokemon/{pokemonId}/asset", assetHandler.HandleManifest)

		r.Get("/species/{id}", speciesHandler.HandleGet)

		r.Get("/db/init", dbHandler.HandleInit)
		r.Post("/db/init", dbHandler.HandleInit)

		if authHandler != nil {
			r.With(auth.RequireAuth(tokens)).Get("/me", authHandler.HandleMe)
		}
	})

	if authHandler != nil {
		s.router.Route("/auth", func(r chi.Router) {
			r.Get("/google/login", authHandler.HandleGoogleLogin)
			r.Get("/google/callback", authHandler.HandleGoogleCallback)
			r.Post("/logout", authHandler.HandleLogout)
		})
	}

	return nil
}

// Close stops background work and closes the store.
func (s *Server) Close() error {
	s.cancel()
	return s.store.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the store (and the rate limiter's cleanup loop)
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("assets", s.config.AssetRoot),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
