/**
 * @description
 * Configuration loader for the Priceshelf backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 *
 * @notes
 * - Fails fast if DATABASE_URL is missing.
 * - Scraper settings apply process-wide: every outbound page fetch shares them.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	Scraper ScraperConfig
	SMTP    SMTPConfig
	Auth    AuthConfig
	Worker  WorkerConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development" or "production"
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

// ScraperConfig holds the global fetch gate settings.
// MaxConcurrent and MinInterval protect the upstream store from bursts;
// they bound the whole process, not a single batch.
type ScraperConfig struct {
	MaxConcurrent int
	MinInterval   time.Duration
	Timeout       time.Duration
	UserAgent     string
}

// SMTPConfig holds outbound mail transport settings
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// AuthConfig holds token signing and job trigger secrets
type AuthConfig struct {
	JWTSecret string
	JobSecret string
}

// WorkerConfig holds the scheduled run cadences
type WorkerConfig struct {
	MonitorInterval  time.Duration
	ListSyncInterval time.Duration
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			CacheTTL: getEnvAsDuration("CACHE_TTL", 10*time.Minute),
		},
		Scraper: ScraperConfig{
			MaxConcurrent: getEnvAsInt("SCRAPER_MAX_CONCURRENT", 5),
			MinInterval:   getEnvAsDuration("SCRAPER_MIN_INTERVAL", 200*time.Millisecond),
			Timeout:       getEnvAsDuration("SCRAPER_TIMEOUT", 30*time.Second),
			UserAgent:     getEnv("SCRAPER_USER_AGENT", "Priceshelf/1.0"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.zoho.com"),
			Port:     getEnv("SMTP_PORT", "587"),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "Priceshelf <noreply@priceshelf.app>"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JobSecret: getEnv("JOB_SECRET", ""),
		},
		Worker: WorkerConfig{
			MonitorInterval:  getEnvAsDuration("MONITOR_INTERVAL", 30*time.Minute),
			ListSyncInterval: getEnvAsDuration("LIST_SYNC_INTERVAL", 2*time.Hour),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" && cfg.Server.Env != "test" {
		fmt.Println("Warning: JWT_SECRET is missing. Auth middleware will reject every token.")
	}
	if cfg.Scraper.MaxConcurrent < 1 {
		return fmt.Errorf("SCRAPER_MAX_CONCURRENT must be at least 1")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// Helper to get env var as duration, e.g. "200ms", "30m"
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
