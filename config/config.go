// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds the service settings
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	StoreDriver     string
	DatabaseURL     string
	StrictTransfers bool
	CORSOrigins     []string
	NIPClientID     string
	NIPClientSecret string
	ShutdownTimeout time.Duration
}

// Load reads the configuration from environment variables
func Load() Config {
	return Config{
		HTTPAddr:        GetenvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        GetenvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       GetenvOrDefault("LOG_FORMAT", "json"),
		StoreDriver:     GetenvOrDefault("STORE_DRIVER", DriverMemory),
		DatabaseURL:     GetenvOrDefault("DATABASE_URL", ""),
		StrictTransfers: GetenvBoolOrDefault("STRICT_TRANSFERS", false),
		CORSOrigins:     splitList(GetenvOrDefault("CORS_ORIGINS", "*")),
		NIPClientID:     GetenvOrDefault("NIP_CLIENT_ID", "mock-client-id"),
		NIPClientSecret: GetenvOrDefault("NIP_CLIENT_SECRET", "mock-client-secret"),
		ShutdownTimeout: GetenvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR cannot be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// GetenvOrDefault returns the trimmed value of key, or defaultValue when it
// is unset or blank
func GetenvOrDefault(key, defaultValue string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	return v
}

// GetenvBoolOrDefault parses key as a bool, falling back to defaultValue
func GetenvBoolOrDefault(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(GetenvOrDefault(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// GetenvDurationOrDefault parses key as a duration, falling back to defaultValue
func GetenvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(GetenvOrDefault(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
