package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables, loading an
// optional .env file first. A missing .env file is not an error.
//
// Recognized variables:
//
//	ADDRESS              bind address, e.g. ":8080"
//	DATABASE_DSN         PostgreSQL DSN
//	SECRET_KEY           JWT HMAC secret
//	TOKEN_FRESHNESS_MIN  access token freshness window, minutes
//	ALLOWED_ORIGINS      comma-separated CORS origins
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("ADDRESS"); v != "" {
		config.EndpointAddr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		config.SecretKey = v
	}
	if v := os.Getenv("TOKEN_FRESHNESS_MIN"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil {
			config.AccessTokenFreshness = time.Duration(minutes) * time.Minute
		}
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		config.AllowedOrigins = origins
	}
}
