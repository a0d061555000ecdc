package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL     string        `validate:"required,url"`
	RequestTimeout time.Duration `validate:"required"`
	SessionDBPath  string        `validate:"required"`
	DebugAddr      string
	RequestsPerSec float64 `validate:"gt=0"`
	RequestBurst   int     `validate:"gte=1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8000/"),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 15*time.Second),
		SessionDBPath:  getEnv("SESSION_DB_PATH", "uiren.db"),
		DebugAddr:      getEnv("DEBUG_ADDR", ""),
		RequestsPerSec: getFloatEnv("REQUESTS_PER_SECOND", 10),
		RequestBurst:   getIntEnv("REQUEST_BURST", 5),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
