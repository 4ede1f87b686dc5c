// Package config loads planner settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/budget-engine/logging"
	"github.com/warp/budget-engine/planning"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port        string
	CORSOrigins []string

	// Storage
	DataBackend  string
	SQLiteDBPath string

	// Timeline
	HistoricalMonths int
	FutureMonths     int
	DefaultStrategy  string

	// Logging
	LogLevel  string
	LogFormat string

	// Scheduler
	RolloverInterval time.Duration

	// values that were set but could not be parsed
	parseErrors []string
}

// Load reads .env when present, then the environment.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "*")),
		DataBackend:  getEnv("DATA_BACKEND", BackendMemory),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budget.db"),

		DefaultStrategy: getEnv("DEFAULT_STRATEGY", string(planning.Snowball)),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", string(logging.FormatText)),
	}
	cfg.HistoricalMonths = cfg.getEnvInt("HISTORICAL_MONTHS", 3)
	cfg.FutureMonths = cfg.getEnvInt("FUTURE_MONTHS", 12)
	cfg.RolloverInterval = cfg.getEnvDuration("ROLLOVER_INTERVAL", time.Hour)
	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	errors := append([]string(nil), c.parseErrors...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, BackendMemory, BackendSQLite))
	}

	if c.HistoricalMonths < 0 || c.HistoricalMonths > 120 {
		errors = append(errors, fmt.Sprintf("invalid historical months %d: must be between 0 and 120", c.HistoricalMonths))
	}
	if c.FutureMonths < 0 || c.FutureMonths > 600 {
		errors = append(errors, fmt.Sprintf("invalid future months %d: must be between 0 and 600", c.FutureMonths))
	}
	if _, err := planning.ParseStrategy(c.DefaultStrategy); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default strategy '%s'", c.DefaultStrategy))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		errors = append(errors, err.Error())
	}

	if c.RolloverInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid rollover interval %v: must be at least 1 second", c.RolloverInterval))
	} else if c.RolloverInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid rollover interval %v: must be at most 24 hours", c.RolloverInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// EnsureDataDir creates the parent directory of the SQLite database.
func (c *Config) EnsureDataDir() error {
	if c.DataBackend != BackendSQLite || c.SQLiteDBPath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(c.SQLiteDBPath)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create SQLite database directory '%s': %w", dir, err)
	}
	return nil
}

// Session converts the timeline settings. Call after Validate.
func (c *Config) Session() planning.SessionConfig {
	cfg := planning.DefaultSessionConfig()
	cfg.HistoricalMonths = c.HistoricalMonths
	cfg.FutureMonths = c.FutureMonths
	if st, err := planning.ParseStrategy(c.DefaultStrategy); err == nil {
		cfg.Strategy = st
	}
	return cfg
}

// Logging converts the logging settings. Call after Validate.
func (c *Config) Logging(component string) logging.Config {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	format, _ := logging.ParseFormat(c.LogFormat)
	return logging.Config{Level: level, Format: format, Component: component}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("invalid %s '%s': must be a number", key, value))
		return defaultValue
	}
	return i
}

func (c *Config) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("invalid %s '%s': must be a duration", key, value))
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
