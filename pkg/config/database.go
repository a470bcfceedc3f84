// pkg/config/database.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// PostgresConfig holds connection parameters for the optional
// execution-log database.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// LoadPostgresConfig loads PostgreSQL configuration from environment
// variables. It returns (nil, nil) when no POSTGRES_* variables are
// set: the log database is opt-in.
func LoadPostgresConfig() (*PostgresConfig, error) {
	user := os.Getenv("POSTGRES_USER")
	database := os.Getenv("POSTGRES_DB")
	if user == "" && database == "" {
		return nil, nil
	}
	if user == "" {
		return nil, errors.New("POSTGRES_USER environment variable is required")
	}
	if database == "" {
		return nil, errors.New("POSTGRES_DB environment variable is required")
	}

	cfg := &PostgresConfig{
		Host:     getEnv("POSTGRES_HOST", "localhost"),
		Port:     getEnvAsInt("POSTGRES_PORT", 5432),
		User:     user,
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Database: database,
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxOpenConns:    getEnvAsInt("POSTGRES_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("POSTGRES_MAX_IDLE_CONNS", 10),
		ConnMaxLifetime: time.Duration(getEnvAsInt("POSTGRES_CONN_MAX_LIFETIME_SECONDS", 1800)) * time.Second,
	}
	return cfg, nil
}

// ConnectionString returns a formatted PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}
