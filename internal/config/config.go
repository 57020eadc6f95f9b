package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database configuration
	DBPath          string
	DBEncryptionKey string

	// Token signing
	JWTSecret string
	TokenTTL  time.Duration

	// SMTP configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Admin bootstrap credentials
	AdminEmail    string
	AdminPassword string

	// Audit configuration
	AuditLogPath   string
	AuditAsyncMode bool

	// Rate limiting
	RateLimitRPS   int
	RateLimitBurst int

	// Application settings
	Port        string
	Environment string
	LogLevel    string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (not required in production)
	godotenv.Load()

	config := &Config{
		DBPath:          getEnv("DB_PATH", "./data/policynav.db"),
		DBEncryptionKey: getEnv("DB_ENCRYPTION_KEY", ""),
		JWTSecret:       getEnv("JWT_SECRET_KEY", ""),
		TokenTTL:        time.Duration(getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		SMTPHost:        getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:        getEnvAsInt("SMTP_PORT", 465),
		SMTPUsername:    getEnv("EMAIL_ID", ""),
		SMTPPassword:    getEnv("EMAIL_APP_PASSWORD", ""),
		SMTPFrom:        getEnv("EMAIL_FROM", os.Getenv("EMAIL_ID")),
		AdminEmail:      getEnv("ADMIN_EMAIL_ID", ""),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
		AuditLogPath:    getEnv("AUDIT_LOG_PATH", "./logs/audit.log"),
		AuditAsyncMode:  getEnvAsBool("AUDIT_ASYNC_MODE", true),
		RateLimitRPS:    getEnvAsInt("RATE_LIMIT_REQUESTS_PER_SECOND", 10),
		RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 20),
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	// Validate critical configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate ensures all required configuration is present
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}

	if c.DBEncryptionKey == "" {
		return fmt.Errorf("DB_ENCRYPTION_KEY is required")
	}

	if len(c.DBEncryptionKey) < 32 {
		return fmt.Errorf("DB_ENCRYPTION_KEY must be at least 32 characters")
	}

	if c.SMTPUsername == "" || c.SMTPPassword == "" {
		return fmt.Errorf("email credentials not set, OTP email cannot be sent")
	}

	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
