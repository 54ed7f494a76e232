// Package config provides application configuration management.
// It loads settings from a .env file and PLANNER_* environment variables
// and validates them for the mode the binary runs in.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ValidationMode selects which settings are required.
type ValidationMode int

const (
	// ServerMode validates everything the HTTP API needs.
	ServerMode ValidationMode = iota
	// CLIMode skips server-only settings.
	CLIMode
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	ServerName      string

	// Parsing
	ParseTimeout  time.Duration
	MaxInputBytes int
	RateLimit     float64 // parse requests per client per minute, 0 disables

	// Storage
	DataDir        string
	PersistEnabled bool
	RunRetention   time.Duration // 0 keeps runs forever

	R2          R2Config
	Sentry      SentryConfig
	BetterStack BetterStackConfig
	Metrics     MetricsConfig
}

// R2Config configures the raw-input archive on Cloudflare R2.
type R2Config struct {
	Enabled         bool
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	ArchivePrefix   string
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled          bool
	DSN              string
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
}

// BetterStackConfig configures log shipping.
type BetterStackConfig struct {
	Enabled  bool
	Token    string
	Endpoint string
}

// MetricsConfig configures Basic Auth on /metrics.
type MetricsConfig struct {
	AuthEnabled bool
	Username    string
	Password    string
}

// Load reads configuration for the HTTP server.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from environment variables, loading .env
// first when present, and validates it for mode.
func LoadForMode(mode ValidationMode) (*Config, error) {
	// Ignore error if file doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, 30*time.Second),
		ServerName:      getEnv(EnvServerName, ""),

		ParseTimeout:  getDurationEnv(EnvParseTimeout, ParseDefault),
		MaxInputBytes: getIntEnv(EnvMaxInputBytes, DefaultMaxInputBytes),
		RateLimit:     getFloatEnv(EnvRateLimit, DefaultRateLimit),

		DataDir:        getEnv(EnvDataDir, getDefaultDataDir()),
		PersistEnabled: getBoolEnv(EnvPersistEnabled, true),
		RunRetention:   getDurationEnv(EnvRunRetention, DefaultRunRetention),

		R2: R2Config{
			Enabled:         getBoolEnv(EnvR2Enabled, false),
			AccountID:       getEnv(EnvR2AccountID, ""),
			AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
			BucketName:      getEnv(EnvR2BucketName, ""),
			ArchivePrefix:   getEnv(EnvR2ArchivePrefix, "aisis/raw"),
		},
		Sentry: SentryConfig{
			Enabled:          getBoolEnv(EnvSentryEnabled, false),
			DSN:              getEnv(EnvSentryDSN, ""),
			Environment:      getEnv(EnvSentryEnvironment, "production"),
			Release:          getEnv(EnvSentryRelease, ""),
			SampleRate:       getFloatEnv(EnvSentrySampleRate, 1.0),
			TracesSampleRate: getFloatEnv(EnvSentryTracesSampleRate, 0.0),
		},
		BetterStack: BetterStackConfig{
			Enabled:  getBoolEnv(EnvBetterStackEnabled, false),
			Token:    getEnv(EnvBetterStackToken, ""),
			Endpoint: getEnv(EnvBetterStackEndpoint, ""),
		},
		Metrics: MetricsConfig{
			AuthEnabled: getBoolEnv(EnvMetricsAuthEnabled, false),
			Username:    getEnv(EnvMetricsUsername, "prometheus"),
			Password:    getEnv(EnvMetricsPassword, ""),
		},
	}

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for server mode.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks required values and ranges, joining every failure.
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	if mode == ServerMode {
		if c.Port == "" {
			errs = append(errs, fmt.Errorf("%s is required", EnvPort))
		}
		if c.ShutdownTimeout <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvShutdownTimeout, c.ShutdownTimeout))
		}
		if c.RateLimit < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %v", EnvRateLimit, c.RateLimit))
		}
		if c.Metrics.AuthEnabled && c.Metrics.Password == "" {
			errs = append(errs, fmt.Errorf("%s is required when metrics auth is enabled", EnvMetricsPassword))
		}
	}
	if c.ParseTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvParseTimeout, c.ParseTimeout))
	}
	if c.MaxInputBytes <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvMaxInputBytes, c.MaxInputBytes))
	}
	if c.RunRetention < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %v", EnvRunRetention, c.RunRetention))
	}
	if c.PersistEnabled && c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%s is required when persistence is enabled", EnvDataDir))
	}
	if c.R2.Enabled {
		for key, value := range map[string]string{
			EnvR2AccountID:       c.R2.AccountID,
			EnvR2AccessKeyID:     c.R2.AccessKeyID,
			EnvR2SecretAccessKey: c.R2.SecretAccessKey,
			EnvR2BucketName:      c.R2.BucketName,
		} {
			if value == "" {
				errs = append(errs, fmt.Errorf("%s is required when R2 is enabled", key))
			}
		}
	}
	if c.Sentry.Enabled && c.Sentry.DSN == "" {
		errs = append(errs, fmt.Errorf("%s is required when Sentry is enabled", EnvSentryDSN))
	}
	if c.BetterStack.Enabled && c.BetterStack.Token == "" {
		errs = append(errs, fmt.Errorf("%s is required when Better Stack is enabled", EnvBetterStackToken))
	}

	return errors.Join(errs...)
}

// BetterStackToken returns the token only when shipping is enabled.
func (c *Config) BetterStackToken() string {
	if !c.BetterStack.Enabled {
		return ""
	}
	return c.BetterStack.Token
}

// R2Endpoint returns the S3-compatible endpoint for the configured account.
func (c *Config) R2Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2.AccountID)
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "aisis.db")
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv accepts the strconv.ParseBool spellings plus yes/no and on/off.
func getBoolEnv(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return defaultValue
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
