package config

import (
	"fmt"
	"os"
	"strconv"

	"insights/internal/logger"
)

// Snapshot source kinds.
const (
	SourceFile   = "file"
	SourceSheets = "sheets"
)

// defaultRecentWindowDays is the trailing activity window used when
// RECENT_WINDOW_DAYS is unset.
const defaultRecentWindowDays = 90

type Config struct {
	// Snapshot source configuration
	SnapshotSource string // "file" or "sheets"
	SnapshotFile   string // Path to JSON snapshot (file source)
	GoogleSheetURL string // Spreadsheet URL (sheets source)

	// OpenAI Configuration
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAITemperature float32

	// Analytics Configuration
	RecentWindowDays int

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		SnapshotSource:    getEnv("SNAPSHOT_SOURCE", SourceFile),
		SnapshotFile:      getEnv("SNAPSHOT_FILE", ""),
		GoogleSheetURL:    getEnv("GOOGLE_SHEET_URL", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITemperature: getFloatEnv("OPENAI_TEMPERATURE", 0.3),
		RecentWindowDays:  getIntEnv("RECENT_WINDOW_DAYS", defaultRecentWindowDays),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:     getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:         getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.SnapshotSource {
	case SourceFile:
		if c.SnapshotFile == "" {
			return fmt.Errorf("SNAPSHOT_FILE is required when SNAPSHOT_SOURCE is %q", SourceFile)
		}
	case SourceSheets:
		if c.GoogleSheetURL == "" {
			return fmt.Errorf("GOOGLE_SHEET_URL is required when SNAPSHOT_SOURCE is %q", SourceSheets)
		}
	default:
		return fmt.Errorf("SNAPSHOT_SOURCE must be %q or %q, got %q", SourceFile, SourceSheets, c.SnapshotSource)
	}
	if c.RecentWindowDays <= 0 {
		return fmt.Errorf("RECENT_WINDOW_DAYS must be positive, got %d", c.RecentWindowDays)
	}
	return nil
}

// AnalysisWindow returns the recent-window length in days, honoring the
// RECENT_WINDOW_DAYS override without requiring a complete snapshot
// configuration. Non-positive or unparsable values fall back to the
// default window.
func AnalysisWindow() int {
	days := getIntEnv("RECENT_WINDOW_DAYS", defaultRecentWindowDays)
	if days <= 0 {
		return defaultRecentWindowDays
	}
	return days
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(parsed)
		}
	}
	return defaultValue
}
