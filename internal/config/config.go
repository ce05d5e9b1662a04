package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds all configuration for the application
type Config struct {
	Port        int
	Environment string
	LogLevel    string
	DatabaseURL string
	CacheTTL    time.Duration

	LoginPassword string
	Session       SessionConfig
	Storage       StorageConfig
}

type SessionConfig struct {
	Password   string
	CookieName string
	TTL        time.Duration
}

type StorageConfig struct {
	Backend        string
	UploadDir      string
	Endpoint       string
	Region         string
	Bucket         string
	AccessKey      string
	AccessSecret   string
	ForcePathStyle bool
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnvAsInt("PORT", 8080),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", "sqlite://linkleopard.db"),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", 60*time.Minute),
		LoginPassword: getEnv("APP_LOGIN_PASSWORD", "admin"),
		Session: SessionConfig{
			Password:   os.Getenv("SESSION_PASSWORD"),
			CookieName: getEnv("SESSION_COOKIE_NAME", "ll_session"),
			TTL:        time.Duration(getEnvAsInt("SESSION_TTL", 1)) * 24 * time.Hour,
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(getEnv("STORAGE_BACKEND", StorageLocal)),
			UploadDir:      getEnv("UPLOAD_DIR", "public/uploads"),
			Endpoint:       os.Getenv("S3_ENDPOINT"),
			Region:         getEnv("S3_REGION", "us-east-1"),
			Bucket:         os.Getenv("S3_BUCKET"),
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			AccessSecret:   os.Getenv("S3_ACCESS_SECRET"),
			ForcePathStyle: getEnvAsBool("S3_FORCE_PATH_STYLE", false),
		},
	}

	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 24 * time.Hour
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate reports settings that would make the server unusable.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, errors.New("PORT must be between 1 and 65535"))
	}
	if c.LoginPassword == "" {
		errs = append(errs, errors.New("APP_LOGIN_PASSWORD must not be empty"))
	}
	if !c.IsDevelopment() && len(c.Session.Password) < 32 {
		errs = append(errs, errors.New("SESSION_PASSWORD must be at least 32 characters outside development"))
	}

	switch c.Storage.Backend {
	case StorageLocal:
		if c.Storage.UploadDir == "" {
			errs = append(errs, errors.New("UPLOAD_DIR must not be empty"))
		}
	case StorageS3:
		if c.Storage.Endpoint == "" {
			errs = append(errs, errors.New("S3_ENDPOINT is required for the s3 storage backend"))
		}
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 storage backend"))
		}
		if c.Storage.AccessKey == "" || c.Storage.AccessSecret == "" {
			errs = append(errs, errors.New("S3_ACCESS_KEY and S3_ACCESS_SECRET are required for the s3 storage backend"))
		}
	default:
		errs = append(errs, errors.New("STORAGE_BACKEND must be \"local\" or \"s3\""))
	}

	return errors.Join(errs...)
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt gets an environment variable as integer with a fallback value
func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
