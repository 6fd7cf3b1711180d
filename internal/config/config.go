// Package config loads configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all fruitshell configuration.
type Config struct {
	// Server
	ServerURL string

	// Metrics (empty disables the listener)
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string

	// Remote call timeout
	Timeout time.Duration

	// External tool invoked for unrecognized commands
	ExternalTool string

	// Command history file (empty disables persistence)
	HistoryFile string

	// Watch server events to invalidate cached listings
	WatchEvents bool
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		ServerURL:    strings.TrimSuffix(envOr("FRUITSHELL_SERVER", "http://localhost:8080"), "/"),
		MetricsAddr:  envOr("FRUITSHELL_METRICS_ADDR", ""),
		LogLevel:     envOr("FRUITSHELL_LOG_LEVEL", "info"),
		LogFormat:    envOr("FRUITSHELL_LOG_FORMAT", "json"),
		LogFile:      envOr("FRUITSHELL_LOG_FILE", ""),
		Timeout:      envDuration("FRUITSHELL_TIMEOUT", 30*time.Second),
		ExternalTool: envOr("FRUITSHELL_EXTERNAL_TOOL", "fruitctl"),
		HistoryFile:  envOr("FRUITSHELL_HISTORY_FILE", defaultHistoryFile()),
		WatchEvents:  envBool("FRUITSHELL_WATCH", true),
	}
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.config/fruitshell/history"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

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

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
