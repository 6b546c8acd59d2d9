package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type AppConfig struct {
	Port        string
	Environment string
	GinMode     string

	ServiceName    string
	ServiceVersion string

	DatabaseDriver string
	DatabasePath   string
	DatabaseURL    string
	LogQueries     bool

	RedisAddr     string
	RedisPassword string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	UndoWindow time.Duration
	CacheTTL   time.Duration

	OTLPEndpoint string
	MetricsPort  string
	LokiURL      string

	RateLimitEnabled bool
	RateLimitConfigs map[string]RateLimitConfig

	EnforceHTTPS bool
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func GetDefaultConfig() *AppConfig {
	return &AppConfig{
		Port:           "8080",
		Environment:    "development",
		GinMode:        "debug",
		ServiceName:    "taskmanager",
		ServiceVersion: "1.0.0",

		DatabaseDriver: DriverSQLite,
		DatabasePath:   "database.db",

		JWTSecret:       "change-me",
		AccessTokenTTL:  3 * time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,

		UndoWindow: 5 * time.Second,
		CacheTTL:   5 * time.Minute,

		OTLPEndpoint: "localhost:4317",
		MetricsPort:  "9091",

		RateLimitEnabled: true,
		RateLimitConfigs: map[string]RateLimitConfig{
			"POST /signup": {
				Requests: 5,
				Window:   time.Minute,
			},
			"POST /auth": {
				Requests: 10,
				Window:   time.Minute,
			},
			"POST /auth/refresh": {
				Requests: 10,
				Window:   time.Minute,
			},
			"GET /tasks": {
				Requests: 100,
				Window:   time.Minute,
			},
			"POST /tasks": {
				Requests: 20,
				Window:   time.Minute,
			},
			"/tasks/:uuid": {
				Requests: 30,
				Window:   time.Minute,
			},
			"POST /tasks/:uuid/done": {
				Requests: 60,
				Window:   time.Minute,
			},
			"default": {
				Requests: 60,
				Window:   time.Minute,
			},
		},
		EnforceHTTPS: false,
	}
}

// Load overlays the environment on top of GetDefaultConfig.
func Load() *AppConfig {
	config := GetDefaultConfig()

	config.Port = getEnv("PORT", config.Port)
	config.GinMode = getEnv("GIN_MODE", config.GinMode)

	config.DatabaseDriver = getEnv("DATABASE_DRIVER", config.DatabaseDriver)
	config.DatabasePath = getEnv("DATABASE_PATH", config.DatabasePath)
	config.DatabaseURL = getEnv("DATABASE_URL", config.DatabaseURL)
	config.LogQueries = getBool("LOG_QUERIES", config.LogQueries)

	config.RedisAddr = getEnv("REDIS_ADDR", config.RedisAddr)
	config.RedisPassword = getEnv("REDIS_PASSWORD", config.RedisPassword)

	config.JWTSecret = getEnv("JWT_SECRET", config.JWTSecret)
	config.AccessTokenTTL = getDuration("ACCESS_TOKEN_TTL", config.AccessTokenTTL)
	config.RefreshTokenTTL = getDuration("REFRESH_TOKEN_TTL", config.RefreshTokenTTL)

	config.UndoWindow = getDuration("UNDO_WINDOW", config.UndoWindow)
	config.CacheTTL = getDuration("CACHE_TTL", config.CacheTTL)

	config.OTLPEndpoint = getEnv("OTLP_ENDPOINT", config.OTLPEndpoint)
	config.MetricsPort = getEnv("METRICS_PORT", config.MetricsPort)
	config.LokiURL = getEnv("LOKI_URL", config.LokiURL)

	config.RateLimitEnabled = getBool("RATE_LIMIT_ENABLED", config.RateLimitEnabled)
	config.EnforceHTTPS = getBool("ENFORCE_HTTPS", config.EnforceHTTPS)

	if config.GinMode == "release" {
		config.Environment = "production"
		config.EnforceHTTPS = true
	}

	return config
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}

	return fallback
}

func getBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)

	if !ok || value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)

	if err != nil {
		slog.Warn("Invalid boolean in environment", "key", key, "value", value)
		return fallback
	}

	return parsed
}

// getDuration accepts Go durations ("5s") or bare seconds ("5").
func getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)

	if !ok || value == "" {
		return fallback
	}

	if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
		return parsed
	}

	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	slog.Warn("Invalid duration in environment", "key", key, "value", value)

	return fallback
}
