package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Audit    AuditConfig
	R2       R2Config
	Kafka    KafkaConfig
	Points   PointsConfig
	Sync     SyncConfig
}

type ServerConfig struct {
	Port           string
	GatewayToken   string
	AllowedOrigins []string
	BodyLimitMB    int
	Verbose        bool
}

type DatabaseConfig struct {
	URL string
}

type AuditConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// Enabled reports whether photo storage is configured.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.Bucket != ""
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type PointsConfig struct {
	RefreshInterval time.Duration
}

type SyncConfig struct {
	ServiceURL   string
	ServiceToken string
	Path         string
	Interval     time.Duration
}

// Load returns application configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "5200"),
			GatewayToken:   getEnv("GATEWAY_SERVICE_TOKEN", ""),
			AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			BodyLimitMB:    getEnvInt("BODY_LIMIT_MB", 25),
			Verbose:        getEnvBool("VERBOSE", false),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Audit: AuditConfig{
			APIKey:  getEnv("AUDIT_API_KEY", ""),
			Model:   getEnv("AUDIT_MODEL", "gemini-2.5-flash"),
			BaseURL: getEnv("AUDIT_BASE_URL", "https://generativelanguage.googleapis.com"),
			Timeout: getEnvDuration("AUDIT_TIMEOUT", 45*time.Second),
		},
		R2: R2Config{
			AccountID:       getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
			Bucket:          getEnv("R2_BUCKET_NAME", ""),
			CDNBaseURL:      getEnv("CDN_BASE_URL", ""),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "food-rescue-events"),
		},
		Points: PointsConfig{
			RefreshInterval: getEnvDuration("POINTS_REFRESH_INTERVAL", 5*time.Minute),
		},
		Sync: SyncConfig{
			ServiceURL:   getEnv("SYNC_SERVICE_URL", ""),
			ServiceToken: getEnv("SYNC_SERVICE_TOKEN", ""),
			Path:         getEnv("SYNC_SERVICE_PATH", "/api/v1/public/profiles"),
			Interval:     getEnvDuration("SYNC_INTERVAL", time.Minute),
		},
	}
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Server.GatewayToken == "" {
		errs = append(errs, errors.New("GATEWAY_SERVICE_TOKEN is required"))
	}
	if c.Points.RefreshInterval <= 0 {
		errs = append(errs, errors.New("POINTS_REFRESH_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolVal, err := strconv.ParseBool(value)
		if err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value and drops blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
