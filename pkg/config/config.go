// Package config holds global settings for the Gauntlet challenge engine.
// All settings can be configured via environment variables or programmatically.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ConfigError reports a malformed startup configuration. It is fatal: the
// process must refuse to start rather than run with a broken catalog or
// inverted session thresholds.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Config holds global settings for the Gauntlet engine.
type Config struct {
	// === Core Settings ===
	HTTPPort    string // Port for the webhook/stats HTTP surface
	VerifyToken string // Token echoed back on webhook verification requests
	LevelsPath  string // Optional YAML file overriding the built-in level catalog

	// === Redis (user record store) ===
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// === Postgres (winner records, optional) ===
	// When empty, winner records are kept in process memory only.
	PostgresDSN string

	// === Session Lifecycle ===
	// WarnThreshold must be strictly less than ExpiryThreshold.
	WarnThreshold   time.Duration // Idle time before an inactivity warning (default: 2m)
	ExpiryThreshold time.Duration // Idle time before the session expires (default: 3m)
	SweepInterval   time.Duration // Period of the lifecycle sweep (default: 1m)

	// === Storage Behavior ===
	RecordTTL    time.Duration // Sliding expiration on user records (default: 7 days)
	StoreTimeout time.Duration // Per-operation store timeout (default: 2s)
	HistoryLimit int           // Max messages retained per user record (default: 50)

	// === Sweep Concurrency ===
	SweepParallelism int // Concurrent per-record updates during a sweep (default: 8)
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		HTTPPort:    GetEnv("GAUNTLET_PORT", "8080"),
		VerifyToken: GetEnv("GAUNTLET_VERIFY_TOKEN", "challenge_token"),
		LevelsPath:  GetEnv("GAUNTLET_LEVELS_PATH", ""),

		RedisAddr:     GetEnv("GAUNTLET_REDIS_ADDR", "localhost:6379"),
		RedisPassword: GetEnv("GAUNTLET_REDIS_PASSWORD", ""),
		RedisDB:       GetEnvInt("GAUNTLET_REDIS_DB", 0),

		PostgresDSN: GetEnv("GAUNTLET_POSTGRES_DSN", ""),

		WarnThreshold:   GetEnvDuration("GAUNTLET_WARN_AFTER", 2*time.Minute),
		ExpiryThreshold: GetEnvDuration("GAUNTLET_EXPIRE_AFTER", 3*time.Minute),
		SweepInterval:   GetEnvDuration("GAUNTLET_SWEEP_INTERVAL", time.Minute),

		RecordTTL:    GetEnvDuration("GAUNTLET_RECORD_TTL", 7*24*time.Hour),
		StoreTimeout: GetEnvDuration("GAUNTLET_STORE_TIMEOUT", 2*time.Second),
		HistoryLimit: clampInt(GetEnvInt("GAUNTLET_HISTORY_LIMIT", 50), 2, 1000),

		SweepParallelism: clampInt(GetEnvInt("GAUNTLET_SWEEP_PARALLELISM", 8), 1, 256),
	}
}

// Validate checks that the configuration is internally consistent.
// Violations are ConfigError: never recoverable at runtime.
func (c *Config) Validate() error {
	if c.WarnThreshold <= 0 {
		return &ConfigError{Field: "GAUNTLET_WARN_AFTER", Reason: "must be positive"}
	}
	if c.WarnThreshold >= c.ExpiryThreshold {
		return &ConfigError{
			Field:  "GAUNTLET_WARN_AFTER",
			Reason: fmt.Sprintf("warn threshold (%s) must be less than expiry threshold (%s)", c.WarnThreshold, c.ExpiryThreshold),
		}
	}
	if c.SweepInterval <= 0 {
		return &ConfigError{Field: "GAUNTLET_SWEEP_INTERVAL", Reason: "must be positive"}
	}
	if c.RecordTTL <= 0 {
		return &ConfigError{Field: "GAUNTLET_RECORD_TTL", Reason: "must be positive"}
	}
	if c.StoreTimeout <= 0 {
		return &ConfigError{Field: "GAUNTLET_STORE_TIMEOUT", Reason: "must be positive"}
	}
	if strings.TrimSpace(c.RedisAddr) == "" {
		return &ConfigError{Field: "GAUNTLET_REDIS_ADDR", Reason: "must not be empty"}
	}
	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
// Call this at startup before wiring the engine.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}

// clampInt ensures a value is within bounds
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvDuration returns the duration value of an environment variable or a
// default value. Accepts Go duration syntax ("90s", "2m", "168h").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
