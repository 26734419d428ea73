package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Config holds application configuration
type Config struct {
	// Server settings
	ListenAddr string

	// Database
	DBPath string

	// Security
	AppSecret       string
	DBEncryptionKey string

	// Identity provider webhook
	WebhookSecret string

	// Assistant
	OpenAIKey   string
	OpenAIModel string

	// Session
	SessionTimeoutHours int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Required security secrets - fail startup if not set or too weak
	appSecret, err := getEnvRequiredMinLength("APP_SECRET", 32)
	if err != nil {
		return nil, fmt.Errorf("security configuration error: %w", err)
	}

	dbEncryptionKey, err := getEnvRequiredMinLength("DB_ENCRYPTION_KEY", 32)
	if err != nil {
		return nil, fmt.Errorf("security configuration error: %w", err)
	}

	cfg := &Config{
		ListenAddr:          getEnv("LISTEN_ADDR", ":8080"),
		DBPath:              getEnv("DB_PATH", "./data/smartinbox.db"),
		AppSecret:           appSecret,
		DBEncryptionKey:     dbEncryptionKey,
		WebhookSecret:       os.Getenv("IDENTITY_WEBHOOK_SECRET"),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		SessionTimeoutHours: getEnvInt("SESSION_TIMEOUT_HOURS", 8),
	}

	if cfg.WebhookSecret == "" {
		log.Warn().Msg("IDENTITY_WEBHOOK_SECRET not set - identity webhook disabled")
	}

	log.Info().Msg("Configuration loaded successfully")
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvRequiredMinLength returns an error if the environment variable is not set
// or if its value is shorter than the minimum required length
func getEnvRequiredMinLength(key string, minLength int) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s environment variable is required but not set", key)
	}
	if len(value) < minLength {
		return "", fmt.Errorf("%s must be at least %d characters (got %d)", key, minLength, len(value))
	}
	return value, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
