package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Pricing policies accepted in PRICING_POLICY.
const (
	PricingLiteral = "literal"
	PricingAnyTime = "any-time"
)

// Config holds all configuration for the record store daemon
type Config struct {
	ServiceName      string
	SnapshotTarget   string
	HTTPPort         string
	GRPCPort         string
	RabbitMQURL      string
	LogLevel         string
	AutosaveInterval time.Duration
	PricingPolicy    string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables
// take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName:    getEnv("SERVICE_NAME", "recordstore"),
		SnapshotTarget: getEnv("SNAPSHOT_TARGET", "recordstore.json"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		GRPCPort:       getEnv("GRPC_PORT", "50051"),
		RabbitMQURL:    os.Getenv("RABBITMQ_URL"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		PricingPolicy:  getEnv("PRICING_POLICY", PricingLiteral),
	}

	interval, err := time.ParseDuration(getEnv("AUTOSAVE_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTOSAVE_INTERVAL: %w", err)
	}
	if interval < 0 {
		return nil, fmt.Errorf("invalid AUTOSAVE_INTERVAL: %s is negative", interval)
	}
	cfg.AutosaveInterval = interval

	switch cfg.PricingPolicy {
	case PricingLiteral, PricingAnyTime:
	default:
		return nil, fmt.Errorf("invalid PRICING_POLICY %q: must be %q or %q", cfg.PricingPolicy, PricingLiteral, PricingAnyTime)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
