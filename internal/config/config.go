package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/benvon/calendar-todo/internal/database"
	"github.com/benvon/calendar-todo/internal/request"
)

// Config holds application configuration
type Config struct {
	StoreBackend      string
	SQLitePath        string
	DatabaseURL       string
	RedisURL          string
	RedisKeyPrefix    string
	RabbitMQURL       string
	ServerPort        string
	FrontendURL       string
	EnableHSTS        bool
	RateLimit         string
	TrustedProxies    request.TrustedProxies
	ServerDebugMode   bool
	WorkerDebugMode   bool
	ThemePersist      bool
	ReconcileInterval time.Duration
	OTELEnabled       bool
	OTELEndpoint      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		StoreBackend:      getEnv("STORE_BACKEND", database.BackendSQLite),
		SQLitePath:        getEnv("SQLITE_PATH", "./data/tasks.db"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisKeyPrefix:    getEnv("REDIS_KEY_PREFIX", database.DefaultRedisKeyPrefix),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:        getEnvBool("ENABLE_HSTS", false),
		RateLimit:         getEnv("RATE_LIMIT", "20-S"),
		ServerDebugMode:   getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode:   getEnvBool("WORKER_DEBUG_MODE", false),
		ThemePersist:      getEnvBool("THEME_PERSIST", false),
		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", 10*time.Minute),
		OTELEnabled:       getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
	}

	switch cfg.StoreBackend {
	case database.BackendMemory, database.BackendSQLite:
	case database.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=%s", database.BackendPostgres)
		}
	case database.BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when STORE_BACKEND=%s", database.BackendRedis)
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q (want memory, sqlite, redis or postgres)", cfg.StoreBackend)
	}

	if cfg.ReconcileInterval < 0 {
		return nil, fmt.Errorf("RECONCILE_INTERVAL must not be negative")
	}

	proxies, err := request.ParseTrustedProxies(getEnv("TRUSTED_PROXIES", ""))
	if err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	cfg.TrustedProxies = proxies

	return cfg, nil
}

// StoreOptions returns the options for opening the configured key-value store
func (c *Config) StoreOptions() database.Options {
	return database.Options{
		Backend:        c.StoreBackend,
		SQLitePath:     c.SQLitePath,
		DatabaseURL:    c.DatabaseURL,
		RedisURL:       c.RedisURL,
		RedisKeyPrefix: c.RedisKeyPrefix,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s", "10m") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs := getEnvInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
