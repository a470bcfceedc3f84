// pkg/config/config.go

// Package config loads application configuration from the environment,
// with a .env file loaded automatically when present.
package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	// Artifact output
	OutputDir string

	// Plan proposal
	GeminiAPIKey string
	GeminiModel  string

	// Optional execution-log database
	Postgres *PostgresConfig

	// Pipeline settings
	Workers int

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables. A .env file in
// the working directory is applied first when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		OutputDir:    getEnv("OUTPUT_DIR", "outputs"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", ""),
		Workers:      getEnvAsInt("WORKER_POOL_SIZE", 4),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
	}

	// The log database is optional; configured only when a DSN or
	// POSTGRES_* variables are present.
	pgConfig, err := LoadPostgresConfig()
	if err != nil {
		return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
	}
	cfg.Postgres = pgConfig

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}
	if c.Workers <= 0 {
		return errors.New("worker pool size must be positive")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return errors.New("log format must be json or console")
	}
	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
