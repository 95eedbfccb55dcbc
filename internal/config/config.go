package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Credential vault
	EncryptionKey string

	// Daraja
	DarajaCallbackURL string
	DarajaTimeout      int // seconds

	// Statement archive (S3-compatible)
	S3 S3Config
}

// S3Config holds the AWS SDK configuration for the statement archive.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string // non-empty to point at LocalStack/MinIO in dev
	AccessKeyID     string
	SecretAccessKey string
}

// developmentEncryptionKey is the fixed fallback used only when
// ENV != production and ENCRYPTION_KEY is unset. Production startup
// fails without a real key; development gets this default plus a
// loud warning.
const developmentEncryptionKey = "development-only-insecure-encryption-key"

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		CORSOrigins:        strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:                getEnv("ENV", "development"),
		EncryptionKey:      getEnv("ENCRYPTION_KEY", ""),
		DarajaCallbackURL:  getEnv("DARAJA_CALLBACK_URL", ""),
		DarajaTimeout:      getEnvInt("DARAJA_TIMEOUT_SECONDS", 30),
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "rentcore-statements"),
			Endpoint:        getEnv("AWS_S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.EncryptionKey == "" {
		if c.Env == "production" {
			return fmt.Errorf("ENCRYPTION_KEY is required outside development")
		}
		log.Warn().Msg("ENCRYPTION_KEY not set; falling back to an insecure development default")
		c.EncryptionKey = developmentEncryptionKey
	}

	return nil
}

// IsDevelopment reports whether the configured profile is development.
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var parsed int
	if _, err := fmt.Sscanf(value, "%d", &parsed); err != nil {
		return defaultValue
	}
	return parsed
}
