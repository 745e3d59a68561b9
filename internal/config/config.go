package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port           string
	DatabaseURL    string
	MigrationsPath string
	JWTSecret      string
	TokenDuration  time.Duration
	LogLevel       string
	Environment    string
	AMQPURL        string
	AMQPExchange   string
	OTLPEndpoint   string
}

// Load reads configuration from the environment, sourcing a local .env file
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		Environment:    getEnvOrDefault("ENVIRONMENT", "development"),
		AMQPURL:        os.Getenv("AMQP_URL"),
		AMQPExchange:   getEnvOrDefault("AMQP_EXCHANGE", "trip.events"),
		OTLPEndpoint:   os.Getenv("OTLP_ENDPOINT"),
	}

	if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.JWTSecret = os.Getenv("JWT_SECRET"); cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	ttl := getEnvOrDefault("TOKEN_TTL", "24h")
	duration, err := time.ParseDuration(ttl)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", ttl, err)
	}
	cfg.TokenDuration = duration

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
