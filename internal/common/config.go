package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bharatsetu/label-auditor/constants"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Gemini    GeminiConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	OCR       OCRConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Addr        string
	PingMessage string
}

// GeminiConfig holds upstream model configuration
type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// RateLimitConfig holds per-caller quota configuration
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// PostgresURL, when set, backs the quota table with a shared store
	// instead of process memory.
	PostgresURL string
}

// AuditConfig holds the optional request-audit log configuration
type AuditConfig struct {
	DBPath string
}

// OCRConfig points at the external OCR service the upload proxy forwards to.
type OCRConfig struct {
	ServiceURL string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":" + getEnv("PORT", "8080"),
			PingMessage: getEnv("PING_MESSAGE", "ping"),
		},
		Gemini: GeminiConfig{
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			Model:       normalizeModel(getEnv("GEMINI_MODEL", "gemini-2.0-flash")),
			BaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1"),
			Temperature: getEnvAsFloat32("GEMINI_TEMPERATURE", 0.2),
			Timeout:     getEnvAsDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		RateLimit: RateLimitConfig{
			Limit:       getEnvAsInt("RATE_LIMIT", constants.DefaultRateLimit),
			Window:      getEnvAsDuration("RATE_WINDOW", constants.DefaultRateWindow),
			PostgresURL: getEnv("QUOTA_DB_URL", ""),
		},
		Audit: AuditConfig{
			DBPath: getEnv("AUDIT_DB_PATH", ""),
		},
		OCR: OCRConfig{
			ServiceURL: getEnv("OCR_SERVICE_URL", "http://localhost:8000"),
		},
	}
}

// normalizeModel ensures the model identifier carries the "models/" namespace
// prefix the generateContent endpoint expects.
func normalizeModel(m string) string {
	m = strings.TrimSpace(m)
	if m == "" {
		return m
	}
	if strings.HasPrefix(m, "models/") {
		return m
	}
	return "models/" + m
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. A missing GEMINI_API_KEY is
// deliberately NOT fatal here: the server boots and the understand endpoint
// answers 500 ServerMisconfigured until the key is provided.
func (c *Config) Validate() error {
	if c.Server.Addr == ":" {
		return NewAppError("CONFIG_ERROR", "PORT must not be empty", ErrInvalidInput)
	}
	if c.RateLimit.Limit <= 0 {
		return NewAppError("CONFIG_ERROR", "RATE_LIMIT must be positive", ErrInvalidInput)
	}
	if c.RateLimit.Window <= 0 {
		return NewAppError("CONFIG_ERROR", "RATE_WINDOW must be positive", ErrInvalidInput)
	}
	return nil
}
