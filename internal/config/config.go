// Package config provides configuration for the coordinator.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the coordinator configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database. "memory" selects the in-memory store, anything else is a
	// SQLite DSN.
	DatabaseURL string

	// Generation backend
	GeneratorMode   string // "MOCK" forces the rule-based generator
	GeneratorURL    string
	GeneratorAPIKey string
	GeneratorModel  string
	GenerateTimeout time.Duration

	// Worker settings
	Workers        int
	DequeueTimeout time.Duration
	IdleWait       time.Duration

	// Streaming
	StreamPollTimeout time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		HTTPPort:          getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:       getEnv("DATABASE_URL", "memory"),
		GeneratorMode:     getEnv("GENERATOR_MODE", "MOCK"),
		GeneratorURL:      getEnv("GENERATOR_URL", ""),
		GeneratorAPIKey:   getEnv("GENERATOR_API_KEY", ""),
		GeneratorModel:    getEnv("GENERATOR_MODEL", "gpt-4o-mini"),
		GenerateTimeout:   time.Duration(getEnvInt("GENERATE_TIMEOUT_MS", 120000)) * time.Millisecond,
		Workers:           getEnvInt("WORKERS", 1),
		DequeueTimeout:    time.Duration(getEnvInt("DEQUEUE_TIMEOUT_MS", 1000)) * time.Millisecond,
		IdleWait:          time.Duration(getEnvInt("IDLE_WAIT_MS", 500)) * time.Millisecond,
		StreamPollTimeout: time.Duration(getEnvInt("STREAM_POLL_TIMEOUT_MS", 30000)) * time.Millisecond,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
