package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds runtime settings loaded from the environment.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	Port string

	// Orders above this total require general_manager approval.
	OrderApprovalThreshold decimal.Decimal
}

// Load reads configs/.env if present, then the environment, applying
// development fallbacks.
func Load() Config {
	godotenv.Load("configs/.env")

	threshold := decimal.NewFromInt(10000)
	if raw := os.Getenv("ORDER_APPROVAL_THRESHOLD"); raw != "" {
		if parsed, err := decimal.NewFromString(raw); err == nil {
			threshold = parsed
		}
	}

	return Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "postgres"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		Port: getEnv("PORT", "8080"),

		OrderApprovalThreshold: threshold,
	}
}

// DSN builds the postgres connection string.
func (c Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort +
		"/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
