package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort string
	GinMode    string
	Debug      bool

	// Database: sqlite (default), postgres or mysql
	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	JWTSecret     string
	JWTExpiration time.Duration

	// Optional integrations; empty values disable them
	RedisURL             string
	AWSRegion            string
	SESFromEmail         string
	SESFromName          string
	AppBaseURL           string
	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string

	MaintenanceSchedule string
	NotificationMaxAge  time.Duration
	LeaderboardCacheTTL time.Duration

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// Load reads configuration from the environment (and an optional .env file)
// with sensible defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to read .env file: %v", err)
	}

	cfg := &Config{
		ServerPort:           getEnv("PORT", "8080"),
		GinMode:              getEnv("GIN_MODE", "release"),
		Debug:                getEnvAsBool("DEBUG", false),
		DatabaseType:         strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DatabasePath:         getEnv("DB_PATH", "./planwise.db"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		JWTExpiration:        getEnvAsDuration("JWT_EXPIRATION", 7*24*time.Hour),
		RedisURL:             getEnv("REDIS_URL", ""),
		AWSRegion:            getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:         getEnv("SES_FROM_EMAIL", ""),
		SESFromName:          getEnv("SES_FROM_NAME", "Planwise"),
		AppBaseURL:           getEnv("APP_BASE_URL", "http://localhost:8080"),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", ""),
		MaintenanceSchedule:  getEnv("MAINTENANCE_SCHEDULE", "@every 1h"),
		NotificationMaxAge:   getEnvAsDuration("NOTIFICATION_MAX_AGE", 30*24*time.Hour),
		LeaderboardCacheTTL:  getEnvAsDuration("LEADERBOARD_CACHE_TTL", time.Minute),
		LoginRateLimit:       getEnvAsInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow:      getEnvAsDuration("LOGIN_RATE_WINDOW", time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required values are present and consistent
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DatabaseType {
	case "sqlite", "sqlite3", "":
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for " + c.DatabaseType)
		}
	default:
		return errors.New("unsupported DB_TYPE: " + c.DatabaseType)
	}
	if c.LoginRateLimit <= 0 {
		return errors.New("LOGIN_RATE_LIMIT must be positive")
	}
	if c.LoginRateWindow <= 0 {
		return errors.New("LOGIN_RATE_WINDOW must be positive")
	}
	return nil
}

// OAuthEnabled reports whether Google sign-in is configured
func (c *Config) OAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if result, err := strconv.ParseBool(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
	}
	return defaultValue
}
