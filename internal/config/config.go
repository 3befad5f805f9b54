// Package config loads service configuration from environment variables,
// with optional .env file support for local development.
package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start. Loaded once in main
// and passed into constructors; no package carries ambient global state.
type Config struct {
	Port        string
	DatabaseURL string // empty → in-memory store
	RedisURL    string // empty → no cache layer
	CacheTTL    time.Duration
	LogLevel    slog.Level
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables win. Safe to call once at process start.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "err", err)
	}

	return Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		CacheTTL:    getEnvDuration("CACHE_TTL", 30*time.Second),
		LogLevel:    parseLevel(getEnv("LOG_LEVEL", "info")),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
