// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis (response cache); the cache is disabled when host is empty.
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Object storage. Driver selects the bucket backend: "http" for a
	// bucket-style HTTP object API, "s3" for S3-compatible storage.
	StorageDriver   string
	StorageEndpoint string
	StorageAPIKey   string
	StorageBucket   string
	StoragePublic   bool   // public bucket: URLs are base + name, no signing
	StorageBaseURL  string // public base URL; derived from the endpoint when empty
	StorageTimeout  time.Duration
	SignedURLExpiry time.Duration
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string

	// Encryption key for configuration secrets at rest (hex, 32 bytes).
	EncryptionKey string

	// ContactDefaultFrom is the system-default sender used when the company
	// config has neither a from-address nor an SMTP username.
	ContactDefaultFrom string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "printfolio"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "printfolio"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     envOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		StorageDriver:   envOrDefault("STORAGE_DRIVER", "http"),
		StorageEndpoint: os.Getenv("STORAGE_ENDPOINT"),
		StorageAPIKey:   os.Getenv("STORAGE_API_KEY"),
		StorageBucket:   envOrDefault("STORAGE_BUCKET", "portfolio"),
		StoragePublic:   envBool("STORAGE_PUBLIC_BUCKET", true),
		StorageBaseURL:  os.Getenv("STORAGE_BASE_URL"),
		StorageTimeout:  envSeconds("STORAGE_TIMEOUT_SECONDS", 10),
		SignedURLExpiry: envSeconds("STORAGE_SIGNED_URL_EXPIRES_IN", 3600),
		S3Region:        envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),

		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),

		ContactDefaultFrom: envOrDefault("CONTACT_DEFAULT_FROM", "noreply@localhost"),
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.EncryptionKey == "" {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envBool reads a boolean environment variable ("true"/"false", "1"/"0").
// Empty or unparseable values return the fallback.
func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// envSeconds reads an integer environment variable as a duration in seconds.
func envSeconds(key string, fallback int) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(fallback) * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return time.Duration(fallback) * time.Second
	}
	return time.Duration(n) * time.Second
}
