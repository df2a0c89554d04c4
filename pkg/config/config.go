package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Marketplace MarketplaceConfig
	Checkout    CheckoutConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Screens     ScreenConfig
	Log         LogConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	ShutdownGrace  time.Duration
}

// MarketplaceConfig points at the marketplace REST API
type MarketplaceConfig struct {
	BaseURL string
	Timeout time.Duration
}

// CheckoutConfig configures the third-party checkout overlay
type CheckoutConfig struct {
	// PublicKey may be empty; checkout then fails at payment time, not at startup
	PublicKey       string
	ScriptURL       string
	CallbackTimeout time.Duration
	MerchantName    string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// ScreenConfig controls per-session dashboard state
type ScreenConfig struct {
	IdleTTL       time.Duration
	PruneInterval time.Duration
	// InFlightTTL bounds how long a distributed in-flight marker may outlive a crashed request
	InFlightTTL time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Env   string
	Level string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			ShutdownGrace:  getEnvAsDuration("SERVER_SHUTDOWN_GRACE", 10*time.Second),
		},
		Marketplace: MarketplaceConfig{
			BaseURL: strings.TrimRight(getEnv("MARKETPLACE_API_URL", "http://localhost:5000"), "/"),
			Timeout: getEnvAsDuration("MARKETPLACE_API_TIMEOUT", 15*time.Second),
		},
		Checkout: CheckoutConfig{
			PublicKey:       getEnv("CHECKOUT_PUBLIC_KEY", ""),
			ScriptURL:       getEnv("CHECKOUT_SCRIPT_URL", "https://checkout.razorpay.com/v1/checkout.js"),
			CallbackTimeout: getEnvAsDuration("CHECKOUT_CALLBACK_TIMEOUT", 15*time.Minute),
			MerchantName:    getEnv("CHECKOUT_MERCHANT_NAME", "Telehealth Marketplace"),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "telehealth_dashboard"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Screens: ScreenConfig{
			IdleTTL:       getEnvAsDuration("SCREEN_IDLE_TTL", 30*time.Minute),
			PruneInterval: getEnvAsDuration("SCREEN_PRUNE_INTERVAL", time.Minute),
			InFlightTTL:   getEnvAsDuration("INFLIGHT_TTL", 30*time.Second),
		},
		Log: LogConfig{
			Env:   getEnv("ENV", "development"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "telehealth-dashboard"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.Marketplace.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("MARKETPLACE_API_URL must be an absolute URL, got %q", c.Marketplace.BaseURL)
	}
	if c.OTEL.Enabled && c.OTEL.Endpoint == "" {
		return fmt.Errorf("OTEL_ENDPOINT is required when OTEL_ENABLED is set")
	}
	return nil
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
