// Package config loads the server and tool settings from the environment.
//
// Values come from real environment variables first. For local runs a
// .env.local or .env file in the working directory fills in whatever the
// environment leaves unset.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DotEnvFiles are tried in order; the first one found is loaded.
var DotEnvFiles = []string{".env.local", ".env"}

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config contains every setting the binaries read.
type Config struct {
	Port      int    `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	AssetRoot string `env:"ASSET_ROOT" envDefault:"public"`
	Database  Database
	Auth      Auth
	Google    Google    `envPrefix:"GOOGLE_"`
	PokeAPI   PokeAPI   `envPrefix:"POKEAPI_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
	Storage   Storage   `envPrefix:"MINIO_"`
}

// Database contains the datastore connection parameters.
// POSTGRES_URL is read when DATABASE_URL is unset.
type Database struct {
	URL         string `env:"DATABASE_URL"`
	FallbackURL string `env:"POSTGRES_URL"`
	Driver      string `env:"DATABASE_DRIVER" envDefault:"postgres"`
}

// DSN returns the connection string to use.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return d.FallbackURL
}

// Auth contains the session parameters. An empty secret disables login.
type Auth struct {
	JWTSecret     string `env:"JWT_SECRET"`
	SecureCookies bool   `env:"SECURE_COOKIES" envDefault:"false"`
}

// Google contains the OAuth client registration.
type Google struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL"`
}

// PokeAPI contains the species-data API parameters.
type PokeAPI struct {
	BaseURL string `env:"BASE_URL" envDefault:"https://pokeapi.co/api/v2"`
	Lang    string `env:"LANG" envDefault:"ko"`
}

// RateLimit contains the per-client token bucket settings.
type RateLimit struct {
	RPS   float64 `env:"RPS" envDefault:"20"`
	Burst int     `env:"BURST" envDefault:"50"`
}

// Storage contains object storage parameters for model uploads.
type Storage struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"pokemon-models"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
	PublicURL string `env:"PUBLIC_URL"`
}

// Enabled reports whether an object store is configured.
func (s Storage) Enabled() bool {
	return s.Endpoint != ""
}

// Load reads the first dotenv file found, then parses the environment.
func Load() (*Config, error) {
	if err := loadDotEnv(DotEnvFiles...); err != nil {
		return nil, err
	}
	return Parse()
}

// Parse builds a Config from the current environment and validates it.
func Parse() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.DSN() == "" {
		return errors.New("config: DATABASE_URL (or POSTGRES_URL) is required")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unknown DATABASE_DRIVER %q", c.Database.Driver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid PORT %d", c.Port)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto slog. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// loadDotEnv loads the first existing file. godotenv never overrides
// variables that are already set.
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("config: loading %s: %w", f, err)
		}
		return nil
	}
	return nil
}
